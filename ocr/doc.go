// Package ocr defines the text-detection service contract consumed by the
// redaction pipeline. An Engine receives a rasterized page image and returns
// recognized words with pixel-space bounds and per-word confidence; it makes
// no guarantees about ordering or exhaustiveness. The production engine lives
// in the tesseract subpackage.
package ocr
