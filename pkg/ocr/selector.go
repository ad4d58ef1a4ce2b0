package ocr

import (
	"fmt"
	"sort"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/ocr/engines"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// EngineFactory builds an engine; it fails when the engine cannot run here
type EngineFactory func() (interfaces.OCREngine, error)

// DefaultOCRSelector implements OCR engine selection
type DefaultOCRSelector struct {
	config    *config.Config
	logger    *logger.Logger
	factories map[types.OCRStrategy]EngineFactory
	built     map[types.OCRStrategy]interfaces.OCREngine
}

var _ interfaces.OCRSelector = (*DefaultOCRSelector)(nil)

// NewOCRSelector creates a selector with the cloud and tesseract engines registered
func NewOCRSelector(cfg *config.Config, log *logger.Logger) *DefaultOCRSelector {
	s := &DefaultOCRSelector{
		config:    cfg,
		logger:    log,
		factories: make(map[types.OCRStrategy]EngineFactory),
		built:     make(map[types.OCRStrategy]interfaces.OCREngine),
	}

	s.RegisterEngine(types.OCRStrategyCloud, func() (interfaces.OCREngine, error) {
		return engines.NewAzureReadEngine(cfg, log), nil
	})
	s.RegisterEngine(types.OCRStrategyTesseract, func() (interfaces.OCREngine, error) {
		engine, err := engines.NewTesseractEngine(cfg, log)
		if err != nil {
			return nil, err
		}
		return engine, nil
	})

	return s
}

// RegisterEngine adds or replaces the factory for a strategy
func (s *DefaultOCRSelector) RegisterEngine(strategy types.OCRStrategy, factory EngineFactory) {
	s.factories[strategy] = factory
	delete(s.built, strategy)
}

// SelectOCRStrategy returns the engine for strategy.
// "auto" prefers the cloud engine when credentials are present.
func (s *DefaultOCRSelector) SelectOCRStrategy(strategy types.OCRStrategy) (interfaces.OCREngine, error) {
	if strategy == "" {
		strategy = types.OCRStrategyAuto
	}

	if strategy == types.OCRStrategyAuto {
		if engine, err := s.engine(types.OCRStrategyCloud); err == nil && engine.IsAvailable() {
			s.logger.Info("Auto-selected OCR engine: %s", engine.GetDescription())
			return engine, nil
		}
		s.logger.Debug("Cloud credentials not found at %s, falling back to tesseract", s.config.CredentialsPath)
		strategy = types.OCRStrategyTesseract
	}

	engine, err := s.engine(strategy)
	if err != nil {
		return nil, err
	}
	if !engine.IsAvailable() {
		return nil, utils.NewEngineNotFoundError(
			fmt.Sprintf("OCR engine '%s' is not available", engine.Name()), nil).
			WithContext("strategy", string(strategy))
	}

	s.logger.Info("Selected OCR engine: %s", engine.GetDescription())
	return engine, nil
}

// GetAvailableStrategies returns every strategy whose engine can run, sorted
func (s *DefaultOCRSelector) GetAvailableStrategies() []types.OCRStrategy {
	var available []types.OCRStrategy
	for strategy := range s.factories {
		engine, err := s.engine(strategy)
		if err != nil {
			s.logger.Debug("Engine %s unavailable: %v", strategy, err)
			continue
		}
		if engine.IsAvailable() {
			available = append(available, strategy)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })
	return available
}

// engine builds (once) and returns the engine for a concrete strategy
func (s *DefaultOCRSelector) engine(strategy types.OCRStrategy) (interfaces.OCREngine, error) {
	if engine, ok := s.built[strategy]; ok {
		return engine, nil
	}
	factory, ok := s.factories[strategy]
	if !ok {
		return nil, utils.NewEngineNotFoundError(fmt.Sprintf("unknown OCR engine: %s", strategy), nil)
	}
	engine, err := factory()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeEngineNotFound,
			fmt.Sprintf("cannot create OCR engine '%s'", strategy))
	}
	s.built[strategy] = engine
	return engine, nil
}
