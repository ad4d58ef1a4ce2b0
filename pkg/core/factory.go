package core

import (
	"fmt"
	"sort"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/ocr"
	"github.com/nodewee/capture-ocr/pkg/providers"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Extractor names
const (
	ExtractorOCR  = "ocr"
	ExtractorHTML = "html"
)

// DefaultExtractorFactory implements ExtractorFactory
type DefaultExtractorFactory struct {
	extractors map[string]interfaces.Extractor
	config     *config.Config
	logger     *logger.Logger
}

var _ interfaces.ExtractorFactory = (*DefaultExtractorFactory)(nil)

// NewExtractorFactory creates a factory with the OCR and saved-page extractors registered
func NewExtractorFactory(cfg *config.Config, log *logger.Logger) *DefaultExtractorFactory {
	f := &DefaultExtractorFactory{
		extractors: make(map[string]interfaces.Extractor),
		config:     cfg,
		logger:     log,
	}

	f.RegisterExtractor(ExtractorHTML, providers.NewHTMLExtractor())
	f.RegisterExtractor(ExtractorOCR, ocr.NewOCRExtractor(cfg, log))

	return f
}

// CreateExtractor returns the primary extractor for the file
func (f *DefaultExtractorFactory) CreateExtractor(fileInfo *types.FileInfo) (interfaces.Extractor, error) {
	chain, err := f.CreateExtractorWithFallbacks(fileInfo)
	if err != nil {
		return nil, err
	}
	return chain[0], nil
}

// CreateExtractorWithFallbacks returns the extractors to try, in order.
// Saved pages are read directly; images go through OCR.
func (f *DefaultExtractorFactory) CreateExtractorWithFallbacks(fileInfo *types.FileInfo) ([]interfaces.Extractor, error) {
	var names []string
	switch {
	case utils.IsPageFile(fileInfo.Extension):
		names = []string{ExtractorHTML}
	case utils.IsImageFile(fileInfo.Extension):
		names = []string{ExtractorOCR}
	case fileInfo.MediaType == types.ImageMediaType:
		// Extension-less input such as stdin, recognised by content
		names = []string{ExtractorOCR}
	case fileInfo.MediaType == types.PageMediaType:
		names = []string{ExtractorHTML}
	}

	var chain []interfaces.Extractor
	for _, name := range names {
		if extractor, ok := f.extractors[name]; ok {
			chain = append(chain, extractor)
		}
	}

	if len(chain) == 0 {
		return nil, utils.NewUnsupportedError(
			fmt.Sprintf("no extractor for file type %q (MIME: %s)", fileInfo.Extension, fileInfo.MimeType), nil)
	}

	f.logger.Debug("Extraction chain for %s: %v", fileInfo.Path, names)
	return chain, nil
}

// RegisterExtractor registers a new extractor
func (f *DefaultExtractorFactory) RegisterExtractor(name string, extractor interfaces.Extractor) {
	f.extractors[name] = extractor
	f.logger.Debug("Registered extractor: %s", name)
}

// ListExtractors returns all registered extractor names, sorted
func (f *DefaultExtractorFactory) ListExtractors() []string {
	names := make([]string, 0, len(f.extractors))
	for name := range f.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
