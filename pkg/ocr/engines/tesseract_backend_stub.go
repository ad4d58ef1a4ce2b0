//go:build !tesseract

package engines

import "github.com/nodewee/capture-ocr/pkg/utils"

// NewTesseractBackend reports that local OCR was not compiled in.
// Rebuild with -tags tesseract to link libtesseract through gosseract.
func NewTesseractBackend() (TesseractBackend, error) {
	return nil, utils.NewEngineNotFoundError(
		"local OCR support not compiled in; rebuild with -tags tesseract", nil)
}
