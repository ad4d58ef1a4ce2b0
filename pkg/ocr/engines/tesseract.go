package engines

import (
	"context"
	"fmt"
	"strings"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/imaging"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/lang"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/tessdata"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// TesseractBackend is the capability the local engine needs from a Tesseract binding.
// A backend is used for a single recognition: Open, Process, Text, then Close.
type TesseractBackend interface {
	Open(dataDir, language string) error
	Process(image []byte) error
	Text() (string, error)
	Close() error
}

// BackendFactory creates a fresh backend
type BackendFactory func() (TesseractBackend, error)

// TesseractEngine runs local OCR through a TesseractBackend
type TesseractEngine struct {
	tessdataDir string
	language    string // Tesseract form, e.g. "jpn+eng"
	fetch       bool
	fetcher     *tessdata.Fetcher
	newBackend  BackendFactory
	preprocess  imaging.Options
	logger      *logger.Logger
}

// TesseractOption customises a TesseractEngine
type TesseractOption func(*TesseractEngine)

// WithBackendFactory replaces the compiled-in backend
func WithBackendFactory(factory BackendFactory) TesseractOption {
	return func(e *TesseractEngine) { e.newBackend = factory }
}

// WithFetcher downloads missing traineddata before recognition
func WithFetcher(fetcher *tessdata.Fetcher) TesseractOption {
	return func(e *TesseractEngine) {
		e.fetcher = fetcher
		e.fetch = fetcher != nil
	}
}

// WithPreprocess overrides image preprocessing
func WithPreprocess(opts imaging.Options) TesseractOption {
	return func(e *TesseractEngine) { e.preprocess = opts }
}

var _ interfaces.OCREngine = (*TesseractEngine)(nil)

// NewTesseractEngine creates the local engine. It fails with an engine_not_found
// error when no backend can be created, so a missing binding surfaces up front.
func NewTesseractEngine(cfg *config.Config, log *logger.Logger, opts ...TesseractOption) (*TesseractEngine, error) {
	e := &TesseractEngine{
		tessdataDir: cfg.TessdataDir,
		language:    TesseractLanguage(cfg),
		newBackend:  NewTesseractBackend,
		preprocess:  imaging.Options{Grayscale: true, Scale: constants.DefaultUpscaleFactor},
		logger:      log,
	}
	if cfg.FetchTessdata {
		e.fetcher = tessdata.NewFetcher(log)
		e.fetch = true
	}
	for _, opt := range opts {
		opt(e)
	}

	probe, err := e.newBackend()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeEngineNotFound, "tesseract backend unavailable")
	}
	if probe == nil {
		return nil, utils.NewEngineAPIError("tesseract backend factory returned nil", nil)
	}
	if err := probe.Close(); err != nil {
		log.Debug("Closing probe backend: %v", err)
	}
	return e, nil
}

// TesseractLanguage resolves the Tesseract language string for cfg.
// An explicit TessLanguage wins, then Language is mapped, then "eng".
func TesseractLanguage(cfg *config.Config) string {
	if cfg.TessLanguage != "" {
		return lang.ToTesseractList(cfg.TessLanguage)
	}
	if l := lang.ToTesseractList(cfg.Language); l != "" {
		return l
	}
	return constants.DefaultTessLanguage
}

// Name returns the name of the OCR engine
func (e *TesseractEngine) Name() string {
	return "tesseract"
}

// GetDescription returns a description of the OCR engine
func (e *TesseractEngine) GetDescription() string {
	return fmt.Sprintf("Tesseract (local, %s)", e.language)
}

// IsAvailable is true once construction succeeded
func (e *TesseractEngine) IsAvailable() bool {
	return e.newBackend != nil
}

// Language returns the Tesseract language string in use
func (e *TesseractEngine) Language() string {
	return e.language
}

// ExtractTextFromImage recognises text in an image file
func (e *TesseractEngine) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	data, err := readImageFile(imagePath)
	if err != nil {
		return "", err
	}
	return e.Recognize(ctx, data)
}

// Recognize recognises text in encoded image bytes
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", utils.NewValidationError("image data is empty", nil)
	}

	dataDir, err := e.resolveTessdata(ctx)
	if err != nil {
		return "", err
	}

	prepared, err := imaging.Prepare(image, e.preprocess)
	if utils.IsErrorType(err, utils.ErrorTypeValidation) {
		return "", err
	}
	if err != nil {
		// Leptonica reads some formats Go cannot decode; hand it the undecoded bytes.
		e.logger.Warn("Preprocessing skipped: %v", err)
		prepared = image
	}

	if err := ctx.Err(); err != nil {
		return "", utils.NewTimeoutError("cancelled before recognition", err)
	}
	return e.run(dataDir, prepared)
}

// run drives one backend through its lifecycle; Close always runs
func (e *TesseractEngine) run(dataDir string, image []byte) (text string, err error) {
	backend, err := e.newBackend()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeEngineNotFound, "tesseract backend unavailable")
	}
	if backend == nil {
		return "", utils.NewEngineAPIError("tesseract backend factory returned nil", nil)
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil && err == nil {
			err = utils.NewOCRError("failed to release tesseract", cerr)
		}
	}()

	log := e.logger.WithField("engine", e.Name()).WithField("language", e.language)

	if err := backend.Open(dataDir, e.language); err != nil {
		return "", utils.NewOCRError(
			fmt.Sprintf("cannot initialise tesseract with %s in %s", e.language, dataDir), err)
	}
	if err := backend.Process(image); err != nil {
		return "", utils.NewOCRError("tesseract could not process the image", err)
	}
	out, err := backend.Text()
	if err != nil {
		return "", utils.NewOCRError("tesseract recognition failed", err)
	}

	log.Debug("Recognised %d characters", len([]rune(out)))
	return strings.TrimSpace(out), nil
}

// resolveTessdata picks the model directory, downloading models when enabled.
// The configured directory is preferred; system install locations are the fallback.
func (e *TesseractEngine) resolveTessdata(ctx context.Context) (string, error) {
	languages := lang.Split(e.language)

	if e.fetch && e.tessdataDir != "" {
		ok, err := e.fetcher.Ensure(ctx, languages, e.tessdataDir)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", utils.NewNetworkError(fmt.Sprintf(
				"could not download traineddata for %s into %s",
				strings.Join(tessdata.Missing(languages, e.tessdataDir), ", "), e.tessdataDir), nil)
		}
		return e.tessdataDir, nil
	}

	candidates := []string{}
	if e.tessdataDir != "" {
		candidates = append(candidates, e.tessdataDir)
	}
	candidates = append(candidates, constants.GetPlatformConfig().TessdataPaths...)

	anyDir := false
	for _, dir := range candidates {
		if !utils.DirExists(dir) {
			continue
		}
		anyDir = true
		if len(tessdata.Missing(languages, dir)) == 0 {
			return dir, nil
		}
	}

	if !anyDir {
		return "", utils.NewDirectoryNotFoundError(
			fmt.Sprintf("tessdata directory not found: %s", e.tessdataDir), nil).
			WithContext("path", e.tessdataDir)
	}
	return "", utils.NewNotFoundError(fmt.Sprintf(
		"traineddata for %s not found; run 'capture-ocr tessdata ensure --lang %s' or pass --fetch-tessdata",
		e.language, strings.Join(languages, ",")), nil)
}
