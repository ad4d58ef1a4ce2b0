package ocr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// OCRExtractor handles image files using the configured OCR engine
type OCRExtractor struct {
	name     string
	config   *config.Config
	logger   *logger.Logger
	selector interfaces.OCRSelector
	engine   interfaces.OCREngine
}

var (
	_ interfaces.Extractor      = (*OCRExtractor)(nil)
	_ interfaces.EngineReporter = (*OCRExtractor)(nil)
)

// NewOCRExtractor creates a new OCR extractor
func NewOCRExtractor(cfg *config.Config, log *logger.Logger) *OCRExtractor {
	return NewOCRExtractorWithSelector(cfg, log, NewOCRSelector(cfg, log))
}

// NewOCRExtractorWithSelector creates an OCR extractor with a custom selector
func NewOCRExtractorWithSelector(cfg *config.Config, log *logger.Logger, selector interfaces.OCRSelector) *OCRExtractor {
	return &OCRExtractor{
		name:     "ocr",
		config:   cfg,
		logger:   log,
		selector: selector,
	}
}

// Prepare selects the engine now so a missing engine fails before any work starts
func (e *OCRExtractor) Prepare() (interfaces.OCREngine, error) {
	if e.engine != nil {
		return e.engine, nil
	}
	engine, err := e.selector.SelectOCRStrategy(e.config.OCRStrategy)
	if err != nil {
		return nil, err
	}
	e.engine = engine
	return engine, nil
}

// Extract extracts text from an image using OCR
func (e *OCRExtractor) Extract(ctx context.Context, inputFile string) (string, error) {
	engine, err := e.Prepare()
	if err != nil {
		return "", err
	}

	e.logger.Progress("🔍", "Running %s OCR on %s", engine.Name(), filepath.Base(inputFile))

	text, err := engine.ExtractTextFromImage(ctx, inputFile)
	if err != nil {
		return "", utils.WrapError(err, "", "image OCR failed")
	}

	if strings.TrimSpace(text) == "" {
		e.logger.Warn("No text recognised in %s", filepath.Base(inputFile))
	}
	return text, nil
}

// SupportsFile checks if this extractor supports the given file type
func (e *OCRExtractor) SupportsFile(fileInfo *types.FileInfo) bool {
	return utils.IsImageFile(fileInfo.Extension) || fileInfo.MediaType == types.ImageMediaType
}

// Name returns the name of the extractor
func (e *OCRExtractor) Name() string {
	return e.name
}

// EngineName returns the selected engine's name, or "" before selection
func (e *OCRExtractor) EngineName() string {
	if e.engine == nil {
		return ""
	}
	return e.engine.Name()
}

// SetOCREngine sets a specific OCR engine, bypassing selection
func (e *OCRExtractor) SetOCREngine(engine interfaces.OCREngine) {
	e.engine = engine
	e.logger.Info("OCR engine manually set to: %s", engine.GetDescription())
}
