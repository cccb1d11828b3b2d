package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Rasterizer renders one page of a PDF file to an image.
type Rasterizer interface {
	Render(ctx context.Context, path string, pageIndex, dpi int) (Raster, error)
}

// DefaultMaxRasterDim bounds the longer edge of a render before OCR. A4 at
// 300 DPI is ~3508 px; anything far beyond that only burns OCR time.
const DefaultMaxRasterDim = 6000

// PopplerRasterizer renders pages by invoking poppler's pdftoppm. The command
// inherits the caller's context, so per-page timeouts and cancellation
// terminate the render.
type PopplerRasterizer struct {
	// MaxDim caps the longer image edge; oversized renders are downscaled.
	// Zero means DefaultMaxRasterDim; negative disables the cap.
	MaxDim int
}

func (r PopplerRasterizer) Render(ctx context.Context, path string, pageIndex, dpi int) (Raster, error) {
	if dpi <= 0 {
		return Raster{}, fmt.Errorf("rasterize page %d: non-positive dpi %d", pageIndex, dpi)
	}
	cmd := exec.CommandContext(ctx, "pdftoppm", append(popplerArgs(pageIndex, dpi), path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Raster{}, fmt.Errorf("rasterize page %d: %w", pageIndex, ctxErr)
		}
		return Raster{}, fmt.Errorf("rasterize page %d: pdftoppm: %v: %s", pageIndex, err, strings.TrimSpace(stderr.String()))
	}

	data := stdout.Bytes()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Raster{}, fmt.Errorf("rasterize page %d: decode render: %w", pageIndex, err)
	}

	maxDim := r.MaxDim
	if maxDim == 0 {
		maxDim = DefaultMaxRasterDim
	}
	if maxDim > 0 && (cfg.Width > maxDim || cfg.Height > maxDim) {
		data, cfg.Width, cfg.Height, err = downscale(data, maxDim)
		if err != nil {
			return Raster{}, fmt.Errorf("rasterize page %d: %w", pageIndex, err)
		}
	}
	return Raster{PNG: data, Width: cfg.Width, Height: cfg.Height, DPI: dpi}, nil
}

// popplerArgs builds the pdftoppm argument list for a single page rendered to
// stdout.
func popplerArgs(pageIndex, dpi int) []string {
	page := strconv.Itoa(pageIndex + 1)
	return []string{"-png", "-r", strconv.Itoa(dpi), "-f", page, "-l", page}
}

// downscale shrinks a PNG so its longer edge equals maxDim, preserving the
// aspect ratio. Callers must take coordinate scale from the returned
// dimensions, not from the DPI.
func downscale(data []byte, maxDim int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode for downscale: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, 0, fmt.Errorf("encode downscaled render: %w", err)
	}
	return buf.Bytes(), dw, dh, nil
}
