package interfaces

import (
	"context"

	"github.com/nodewee/capture-ocr/pkg/types"
)

// Extractor defines the interface for text extraction
type Extractor interface {
	// Extract extracts text from the given file
	Extract(ctx context.Context, inputFile string) (string, error)

	// SupportsFile checks if this extractor supports the given file type
	SupportsFile(fileInfo *types.FileInfo) bool

	// Name returns the name of the extractor
	Name() string
}

// EngineReporter is implemented by extractors that delegate to a named engine
type EngineReporter interface {
	EngineName() string
}

// ExtractorFactory creates extractors based on file type
type ExtractorFactory interface {
	// CreateExtractor creates an appropriate extractor for the file
	CreateExtractor(fileInfo *types.FileInfo) (Extractor, error)

	// CreateExtractorWithFallbacks creates extractors with fallback options
	CreateExtractorWithFallbacks(fileInfo *types.FileInfo) ([]Extractor, error)

	// RegisterExtractor registers a new extractor
	RegisterExtractor(name string, extractor Extractor)

	// ListExtractors returns all registered extractors
	ListExtractors() []string
}

// ExtractionResult holds the result of a single capture
type ExtractionResult struct {
	Text                string                 `json:"text"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	Source              string                 `json:"source"`
	OutputPath          string                 `json:"output_path,omitempty"`
	ExtractorUsed       string                 `json:"extractor_used"`
	ProcessTime         int64                  `json:"process_time_ms"`
	Error               string                 `json:"error,omitempty"`
	FallbackUsed        bool                   `json:"fallback_used,omitempty"`
	AttemptedExtractors []string               `json:"attempted_extractors,omitempty"`
}

// FileProcessor handles the overall file processing workflow
type FileProcessor interface {
	// ProcessFile extracts text from inputFile and saves it to outputFile when set
	ProcessFile(ctx context.Context, inputFile, outputFile string) (*ExtractionResult, error)

	// SetExtractorFactory sets the extractor factory to use
	SetExtractorFactory(factory ExtractorFactory)
}
