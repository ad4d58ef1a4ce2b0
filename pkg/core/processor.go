package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/textproc"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// DefaultFileProcessor runs one capture: extract, post-process, save
type DefaultFileProcessor struct {
	config  *config.Config
	logger  *logger.Logger
	factory interfaces.ExtractorFactory
	stdin   io.Reader
}

func (p *DefaultFileProcessor) newTempManager() (interfaces.TempFileManager, error) {
	return utils.NewSimpleTempManager("", p.logger)
}

var _ interfaces.FileProcessor = (*DefaultFileProcessor)(nil)

// NewFileProcessor creates a new file processor
func NewFileProcessor(cfg *config.Config, log *logger.Logger) (*DefaultFileProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug("File processor initialized: %s", cfg)

	return &DefaultFileProcessor{
		config:  cfg,
		logger:  log,
		factory: NewExtractorFactory(cfg, log),
		stdin:   os.Stdin,
	}, nil
}

// SetExtractorFactory sets the extractor factory to use
func (p *DefaultFileProcessor) SetExtractorFactory(factory interfaces.ExtractorFactory) {
	p.factory = factory
}

// SetStdin replaces the reader used for "-" input
func (p *DefaultFileProcessor) SetStdin(r io.Reader) {
	p.stdin = r
}

// ProcessFile extracts text from inputFile ("-" for stdin) and saves it to
// outputFile when one is given.
func (p *DefaultFileProcessor) ProcessFile(ctx context.Context, inputFile, outputFile string) (*interfaces.ExtractionResult, error) {
	startTime := time.Now()
	source := inputFile

	if p.config.SkipExisting && outputFile != "" {
		if result, err := p.loadExistingResult(outputFile, source); err == nil {
			return result, nil
		}
	}

	if inputFile == constants.StdinInput {
		tm, err := p.newTempManager()
		if err != nil {
			return nil, err
		}
		p.logger.Debug("Spooling stdin under %s", tm.GetBasePath())

		var result *interfaces.ExtractionResult
		err = tm.WithCleanup(func() error {
			spooled, err := tm.SpoolReader(p.stdin, "stdin", "")
			if err != nil {
				return err
			}
			result, err = p.process(ctx, spooled, "stdin", outputFile, startTime)
			return err
		})
		return result, err
	}

	return p.process(ctx, inputFile, source, outputFile, startTime)
}

func (p *DefaultFileProcessor) process(ctx context.Context, inputFile, source, outputFile string, startTime time.Time) (*interfaces.ExtractionResult, error) {
	if err := p.validateInputFile(inputFile); err != nil {
		return nil, err
	}

	fileInfo, err := utils.GetFileInfo(inputFile)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to get file info")
	}
	p.logger.Debug("Input %s: ext=%q mime=%s size=%d media=%s",
		source, fileInfo.Extension, fileInfo.MimeType, fileInfo.Size, fileInfo.MediaType)

	if err := p.validateFileSize(fileInfo); err != nil {
		return nil, err
	}

	extractors, err := p.factory.CreateExtractorWithFallbacks(fileInfo)
	if err != nil {
		return nil, err
	}

	result, err := p.attemptExtraction(ctx, inputFile, extractors)
	result.Source = source
	if err != nil {
		return result, err
	}

	result.Text = textproc.Process(result.Text, textproc.Options{
		JoinLines:    p.config.JoinLines,
		RemoveSpaces: p.config.RemoveSpaces,
	})

	if outputFile != "" {
		if err := p.saveToFile(result.Text, outputFile); err != nil {
			return result, err
		}
		result.OutputPath = outputFile
		p.logger.Progress("💾", "Text saved to: %s", outputFile)
	}

	result.ProcessTime = time.Since(startTime).Milliseconds()
	p.logger.Progress("✅", "Text extraction completed in %dms", result.ProcessTime)
	return result, nil
}

// validateInputFile checks the input exists and is readable
func (p *DefaultFileProcessor) validateInputFile(inputFile string) error {
	if inputFile == "" {
		return utils.NewValidationError("input file path cannot be empty", nil)
	}

	info, err := os.Stat(inputFile)
	if os.IsNotExist(err) {
		return utils.NewNotFoundError(fmt.Sprintf("input file not found: %s", inputFile), err)
	}
	if err != nil {
		return utils.WrapError(err, "", "cannot access input file")
	}
	if info.IsDir() {
		return utils.NewValidationError(fmt.Sprintf("%s is a directory", inputFile), nil)
	}

	file, err := os.Open(inputFile)
	if err != nil {
		return utils.NewPermissionError(fmt.Sprintf("cannot read input file: %s", inputFile), err)
	}
	file.Close()
	return nil
}

// validateFileSize enforces the upload limit for images
func (p *DefaultFileProcessor) validateFileSize(info *types.FileInfo) error {
	if info.Size == 0 {
		return utils.NewValidationError("input file is empty", nil)
	}
	if info.MediaType == types.ImageMediaType && info.Size > constants.MaxImageSize {
		return utils.NewValidationError(
			fmt.Sprintf("image size (%d bytes) exceeds maximum limit (%d bytes)",
				info.Size, constants.MaxImageSize), nil)
	}
	if info.Size > constants.WarnFileSizeLimit {
		p.logger.Warn("Large file detected (%d bytes), processing may take longer", info.Size)
	}
	return nil
}

// loadExistingResult returns the saved output instead of extracting again
func (p *DefaultFileProcessor) loadExistingResult(outputFile, source string) (*interfaces.ExtractionResult, error) {
	content, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, utils.NewNotFoundError("existing result not found", err)
	}

	p.logger.Progress("⏭️", "Output file already exists, skipping: %s", outputFile)
	return &interfaces.ExtractionResult{
		Text:          string(content),
		Source:        source,
		OutputPath:    outputFile,
		ExtractorUsed: "cached",
	}, nil
}

// attemptExtraction tries each extractor in order. There is no retry:
// a failed cloud call is reported, not repeated.
func (p *DefaultFileProcessor) attemptExtraction(ctx context.Context, inputFile string, extractors []interfaces.Extractor) (*interfaces.ExtractionResult, error) {
	result := &interfaces.ExtractionResult{Metadata: map[string]interface{}{}}
	var lastErr error

	for i, extractor := range extractors {
		name := extractor.Name()
		result.AttemptedExtractors = append(result.AttemptedExtractors, name)
		if i > 0 {
			result.FallbackUsed = true
			p.logger.Warn("Trying fallback extractor: %s", name)
		}

		text, err := extractor.Extract(ctx, inputFile)
		if err != nil {
			p.logger.Debug("Extractor '%s' failed: %v", name, err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result.Text = text
		result.ExtractorUsed = name
		if named, ok := extractor.(interfaces.EngineReporter); ok && named.EngineName() != "" {
			result.Metadata["engine"] = named.EngineName()
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = utils.NewUnsupportedError("no extractors to try", nil)
	}
	result.Error = lastErr.Error()
	return result, lastErr
}

// saveToFile writes UTF-8 text atomically, creating the directory if needed
func (p *DefaultFileProcessor) saveToFile(text, outputFile string) error {
	if err := utils.WriteFileAtomic(outputFile, []byte(text), constants.DefaultFilePermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to save output file")
	}
	p.logger.Debug("Wrote %d bytes to %s", len(text), filepath.Base(outputFile))
	return nil
}
