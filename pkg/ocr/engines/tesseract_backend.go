//go:build tesseract

package engines

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// gosseractBackend drives libtesseract through gosseract.
// Build with -tags tesseract; requires libtesseract and leptonica headers.
type gosseractBackend struct {
	client *gosseract.Client
}

// NewTesseractBackend creates a backend bound to libtesseract
func NewTesseractBackend() (TesseractBackend, error) {
	return &gosseractBackend{client: gosseract.NewClient()}, nil
}

func (b *gosseractBackend) Open(dataDir, language string) error {
	if err := b.client.SetTessdataPrefix(dataDir); err != nil {
		return fmt.Errorf("set tessdata prefix: %w", err)
	}
	if err := b.client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return fmt.Errorf("set language %s: %w", language, err)
	}
	return nil
}

func (b *gosseractBackend) Process(image []byte) error {
	if err := b.client.SetImageFromBytes(image); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	return nil
}

func (b *gosseractBackend) Text() (string, error) {
	return b.client.Text()
}

func (b *gosseractBackend) Close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}
