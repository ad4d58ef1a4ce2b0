package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

const (
	ConfigFileName = "config.json"
	AppDirName     = ".capture-ocr"

	// ConfigDirEnv relocates the config directory, mostly for tests and portable installs
	ConfigDirEnv = "CAPTURE_OCR_CONFIG_DIR"
)

// ConfigFile represents the JSON configuration file structure
type ConfigFile struct {
	CredentialsPath string `json:"credentials_path,omitempty"`
	TessdataDir     string `json:"tessdata_dir,omitempty"`
	DefaultEngine   string `json:"default_engine,omitempty"`
	Language        string `json:"language,omitempty"`
}

// configKeys maps each persisted key to its accessor pair
var configKeys = map[string]struct {
	get func(*ConfigFile) string
	set func(*ConfigFile, string) error
}{
	"credentials_path": {
		get: func(cf *ConfigFile) string { return cf.CredentialsPath },
		set: func(cf *ConfigFile, v string) error { cf.CredentialsPath = utils.ExpandHome(v); return nil },
	},
	"tessdata_dir": {
		get: func(cf *ConfigFile) string { return cf.TessdataDir },
		set: func(cf *ConfigFile, v string) error { cf.TessdataDir = utils.ExpandHome(v); return nil },
	},
	"default_engine": {
		get: func(cf *ConfigFile) string { return cf.DefaultEngine },
		set: func(cf *ConfigFile, v string) error {
			if err := NewConfigValidator().validateOCRStrategy(types.OCRStrategy(v)); err != nil {
				return utils.NewValidationError(err.Error(), nil)
			}
			cf.DefaultEngine = v
			return nil
		},
	},
	"language": {
		get: func(cf *ConfigFile) string { return cf.Language },
		set: func(cf *ConfigFile, v string) error { cf.Language = v; return nil },
	},
}

// GetConfigDir returns the user configuration directory (~/.capture-ocr)
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, "failed to get user home directory")
	}
	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig returns defaults overlaid with the config file, if one exists
func LoadConfig() (*Config, error) {
	cf, err := loadConfigFile()
	if err != nil {
		return nil, err
	}
	return configFileToConfig(cf), nil
}

// loadConfigFile reads the config file; a missing file yields an empty ConfigFile
func loadConfigFile() (*ConfigFile, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &ConfigFile{}, nil
	}
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read config file")
	}

	var cf ConfigFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to parse config file "+configPath)
	}
	return &cf, nil
}

// saveConfigFile writes the config file, creating its directory when needed
func saveConfigFile(cf *ConfigFile) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to marshal config")
	}

	if err := utils.WriteFileAtomic(configPath, data, constants.DefaultFilePermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to write config file")
	}
	return nil
}

// configFileToConfig converts ConfigFile to Config, keeping defaults for unset keys
func configFileToConfig(cf *ConfigFile) *Config {
	cfg := NewConfig()
	if cf.CredentialsPath != "" {
		cfg.CredentialsPath = cf.CredentialsPath
	}
	if cf.TessdataDir != "" {
		cfg.TessdataDir = cf.TessdataDir
	}
	if cf.DefaultEngine != "" {
		cfg.OCRStrategy = types.OCRStrategy(cf.DefaultEngine)
	}
	if cf.Language != "" {
		cfg.Language = cf.Language
	}
	return cfg
}

// GetConfigValue returns the persisted value for key ("" when unset)
func GetConfigValue(key string) (string, error) {
	accessor, ok := configKeys[key]
	if !ok {
		return "", utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}

	cf, err := loadConfigFile()
	if err != nil {
		return "", err
	}
	return accessor.get(cf), nil
}

// SetConfigValue sets a persisted value and saves the file
func SetConfigValue(key, value string) error {
	accessor, ok := configKeys[key]
	if !ok {
		return utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}

	cf, err := loadConfigFile()
	if err != nil {
		return err
	}
	if err := accessor.set(cf, value); err != nil {
		return err
	}
	return saveConfigFile(cf)
}

// ListConfigKeys returns all available configuration keys, sorted
func ListConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
