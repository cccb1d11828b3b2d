package ocr

import "strconv"

// InputOption mutates an OCR input before submission.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// WithTesseractPSM sets the page segmentation mode (PSM) variable for
// Tesseract.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata["tessedit_pageseg_mode"] = strconv.Itoa(mode)
	}
}

// NewInput builds an Input for a rendered page image and applies options.
func NewInput(id string, pageIndex int, image []byte, format ImageFormat, opts ...InputOption) Input {
	in := Input{
		ID:        id,
		Image:     image,
		Format:    format,
		PageIndex: pageIndex,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
