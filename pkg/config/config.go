package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Default values
const (
	DefaultLogLevel       = "info"
	DefaultTimeoutMinutes = constants.DefaultTimeoutMinutes
	DefaultSkipExisting   = false
	DefaultEnableVerbose  = false
	DefaultOCRStrategy    = types.OCRStrategyAuto
	DefaultLanguage       = constants.DefaultCloudLang
)

// Config holds application configuration
type Config struct {
	// Persisted settings (see file.go)
	CredentialsPath string            `json:"credentials_path"`
	TessdataDir     string            `json:"tessdata_dir"`
	OCRStrategy     types.OCRStrategy `json:"default_engine"`
	Language        string            `json:"language"`

	// Runtime settings (not persisted to file)
	TessLanguage   string        `json:"-"` // explicit Tesseract code; derived from Language when empty
	FetchTessdata  bool          `json:"-"`
	PollInterval   time.Duration `json:"-"`
	MaxPolls       int           `json:"-"`
	TimeoutMinutes int           `json:"-"`
	LogLevel       string        `json:"-"`
	EnableVerbose  bool          `json:"-"`
	SkipExisting   bool          `json:"-"`
	JoinLines      bool          `json:"-"`
	RemoveSpaces   bool          `json:"-"`
}

// NewConfig returns a configuration populated with built-in defaults only
func NewConfig() *Config {
	return &Config{
		CredentialsPath: DefaultCredentialsPath(),
		TessdataDir:     DefaultTessdataDir(),
		OCRStrategy:     DefaultOCRStrategy,
		Language:        DefaultLanguage,
		PollInterval:    constants.DefaultPollInterval,
		MaxPolls:        constants.DefaultMaxPolls,
		TimeoutMinutes:  DefaultTimeoutMinutes,
		LogLevel:        DefaultLogLevel,
		EnableVerbose:   DefaultEnableVerbose,
		SkipExisting:    DefaultSkipExisting,
		JoinLines:       true,
	}
}

// DefaultTessdataDir returns the tessdata folder next to the executable
func DefaultTessdataDir() string {
	return filepath.Join(utils.ExecutableDir(), constants.TessdataDirName)
}

// DefaultConfig returns defaults merged with the persisted config file
func DefaultConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.DefaultLogger().Warn("Failed to load config file, using defaults: %v", err)
		return NewConfig()
	}
	return cfg
}

// LoadConfigWithEnvOverrides loads config from file and applies CAPTURE_OCR_* overrides
func LoadConfigWithEnvOverrides() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}

// ApplyEnv applies environment overrides using the given lookup function.
// Unparseable values are ignored and the previous value is kept.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			if b, err := cast.ToBoolE(v); err == nil {
				*dst = b
			}
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := cast.ToIntE(v); err == nil {
				*dst = n
			}
		}
	}

	str("CAPTURE_OCR_CREDENTIALS", &c.CredentialsPath)
	str("CAPTURE_OCR_TESSDATA", &c.TessdataDir)
	str("CAPTURE_OCR_LANG", &c.Language)
	str("CAPTURE_OCR_TESS_LANG", &c.TessLanguage)
	str("CAPTURE_OCR_LOG_LEVEL", &c.LogLevel)
	if v, ok := lookup("CAPTURE_OCR_ENGINE"); ok && v != "" {
		c.OCRStrategy = types.OCRStrategy(strings.ToLower(strings.TrimSpace(v)))
	}

	boolean("CAPTURE_OCR_FETCH_TESSDATA", &c.FetchTessdata)
	boolean("CAPTURE_OCR_VERBOSE", &c.EnableVerbose)
	boolean("CAPTURE_OCR_SKIP_EXISTING", &c.SkipExisting)
	boolean("CAPTURE_OCR_JOIN_LINES", &c.JoinLines)
	boolean("CAPTURE_OCR_REMOVE_SPACES", &c.RemoveSpaces)

	integer("CAPTURE_OCR_MAX_POLLS", &c.MaxPolls)
	integer("CAPTURE_OCR_TIMEOUT_MINUTES", &c.TimeoutMinutes)

	// Bare numbers are read as milliseconds, otherwise as a Go duration string.
	if v, ok := lookup("CAPTURE_OCR_POLL_INTERVAL"); ok && v != "" {
		if ms, err := cast.ToInt64E(v); err == nil {
			c.PollInterval = time.Duration(ms) * time.Millisecond
		} else if d, err := cast.ToDurationE(v); err == nil {
			c.PollInterval = d
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return NewConfigValidator().Validate(c)
}

// Timeout returns the overall deadline for one invocation
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{OCRStrategy: %s, Language: %s, LogLevel: %s, Verbose: %v}",
		c.OCRStrategy, c.Language, c.LogLevel, c.EnableVerbose)
}
