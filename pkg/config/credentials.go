package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Credentials holds the cloud OCR endpoint and subscription key.
// JSON field names match case-insensitively, so "endpoint"/"apikey" also load.
type Credentials struct {
	Endpoint string `json:"Endpoint"`
	APIKey   string `json:"ApiKey"`
}

// DefaultCredentialsPath returns azurevision.json next to the executable
func DefaultCredentialsPath() string {
	return filepath.Join(utils.ExecutableDir(), constants.CredentialsFileName)
}

// LoadCredentials reads and validates a credentials file.
// Values are returned exactly as stored; nothing is trimmed.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		return nil, utils.NewConfigurationError("credentials path is empty", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewConfigurationError(
			fmt.Sprintf("cannot read credentials file %s", path), err).
			WithContext("path", path)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, utils.NewConfigurationError(
			fmt.Sprintf("credentials file %s is not valid JSON", path), err).
			WithContext("path", path)
	}

	if err := creds.Validate(); err != nil {
		return nil, utils.WrapError(err, "", path)
	}
	return &creds, nil
}

// Validate checks that both fields are present
func (c *Credentials) Validate() error {
	if c.Endpoint == "" {
		return utils.NewConfigurationError("Endpoint is missing", nil)
	}
	if c.APIKey == "" {
		return utils.NewConfigurationError("ApiKey is missing", nil)
	}
	return nil
}

// String masks the key so credentials can be logged safely
func (c *Credentials) String() string {
	return fmt.Sprintf("Credentials{Endpoint: %s, ApiKey: %s}", c.Endpoint, maskKey(c.APIKey))
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
