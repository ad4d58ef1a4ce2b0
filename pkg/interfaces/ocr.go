package interfaces

import (
	"context"

	"github.com/nodewee/capture-ocr/pkg/types"
)

// OCREngine defines the interface for different OCR implementations
type OCREngine interface {
	// Name returns the name of the OCR engine
	Name() string

	// ExtractTextFromImage extracts text from an image file
	ExtractTextFromImage(ctx context.Context, imagePath string) (string, error)

	// IsAvailable reports whether the engine can run in this environment
	IsAvailable() bool

	// GetDescription returns a description of the OCR engine
	GetDescription() string
}

// OCRSelector handles the selection of OCR engine
type OCRSelector interface {
	// SelectOCRStrategy returns the engine for the given strategy
	SelectOCRStrategy(strategy types.OCRStrategy) (OCREngine, error)

	// GetAvailableStrategies returns all available OCR strategies
	GetAvailableStrategies() []types.OCRStrategy
}
