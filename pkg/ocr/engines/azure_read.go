package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/httpc"
	"github.com/nodewee/capture-ocr/pkg/interfaces"
	"github.com/nodewee/capture-ocr/pkg/lang"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// AzureReadEngine recognises text with the asynchronous Computer Vision Read v3.2 API
type AzureReadEngine struct {
	credentialsPath string
	credentials     *config.Credentials // when nil, loaded from credentialsPath on every call
	language        string
	readingOrder    string
	pollInterval    time.Duration
	maxPolls        int
	client          *http.Client
	logger          *logger.Logger
}

// AzureReadOption customises an AzureReadEngine
type AzureReadOption func(*AzureReadEngine)

// WithCredentials uses fixed credentials instead of reading the credentials file
func WithCredentials(creds *config.Credentials) AzureReadOption {
	return func(e *AzureReadEngine) { e.credentials = creds }
}

// WithHTTPClient replaces the shared HTTP client
func WithHTTPClient(client *http.Client) AzureReadOption {
	return func(e *AzureReadEngine) { e.client = client }
}

// WithPolling sets the delay between result polls and the maximum number of polls
func WithPolling(interval time.Duration, maxPolls int) AzureReadOption {
	return func(e *AzureReadEngine) {
		if interval > 0 {
			e.pollInterval = interval
		}
		if maxPolls > 0 {
			e.maxPolls = maxPolls
		}
	}
}

// WithLanguage sets the language hint sent to the service. Only the first
// language of a list is used; Tesseract codes are converted to BCP-47 and
// anything unrecognised falls back to the default cloud language.
func WithLanguage(language string) AzureReadOption {
	return func(e *AzureReadEngine) {
		parts := lang.Split(language)
		if len(parts) == 0 {
			return
		}
		if tag := lang.ToBCP47(parts[0]); tag != "" {
			e.language = tag
		} else {
			e.language = constants.DefaultCloudLang
		}
	}
}

var _ interfaces.OCREngine = (*AzureReadEngine)(nil)

// NewAzureReadEngine creates a cloud OCR engine from configuration
func NewAzureReadEngine(cfg *config.Config, log *logger.Logger, opts ...AzureReadOption) *AzureReadEngine {
	e := &AzureReadEngine{
		credentialsPath: cfg.CredentialsPath,
		language:        constants.DefaultCloudLang,
		readingOrder:    constants.DefaultReadingOrder,
		pollInterval:    constants.DefaultPollInterval,
		maxPolls:        constants.DefaultMaxPolls,
		client:          httpc.Client,
		logger:          log,
	}
	WithLanguage(cfg.Language)(e)
	WithPolling(cfg.PollInterval, cfg.MaxPolls)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the name of the OCR engine
func (e *AzureReadEngine) Name() string {
	return "cloud"
}

// GetDescription returns a description of the OCR engine
func (e *AzureReadEngine) GetDescription() string {
	return "Azure Computer Vision Read API (cloud)"
}

// IsAvailable reports whether credentials are configured
func (e *AzureReadEngine) IsAvailable() bool {
	if e.credentials != nil {
		return e.credentials.Validate() == nil
	}
	return utils.FileExists(e.credentialsPath)
}

// ExtractTextFromImage reads an image file and recognises it
func (e *AzureReadEngine) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	data, err := readImageFile(imagePath)
	if err != nil {
		return "", err
	}
	return e.Recognize(ctx, data)
}

// Recognize submits image bytes, polls until the analysis is terminal and
// returns the recognised lines joined with "\n".
func (e *AzureReadEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", utils.NewValidationError("image data is empty", nil)
	}

	creds := e.credentials
	if creds == nil {
		loaded, err := config.LoadCredentials(e.credentialsPath)
		if err != nil {
			return "", err
		}
		creds = loaded
	}

	requestID := uuid.NewString()
	log := e.logger.WithField("request_id", requestID).WithField("engine", e.Name())

	operationURL, err := e.submit(ctx, creds, image, requestID)
	if err != nil {
		return "", err
	}
	log.Debug("Analysis accepted, polling %s", operationURL)

	body, err := e.poll(ctx, creds, operationURL, requestID, log)
	if err != nil {
		return "", err
	}

	text, perr := flattenReadResult(body)
	if perr != nil {
		log.Warn("Result is not valid JSON, returning raw body: %v", perr)
		return string(body), nil
	}
	return text, nil
}

// submit posts the image and returns the Operation-Location URL
func (e *AzureReadEngine) submit(ctx context.Context, creds *config.Credentials, image []byte, requestID string) (string, error) {
	analyzeURL, err := BuildAnalyzeURL(creds.Endpoint, e.language, e.readingOrder)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, bytes.NewReader(image))
	if err != nil {
		return "", utils.NewConfigurationError("cannot build analyze request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(constants.SubscriptionKeyHeader, creds.APIKey)
	req.Header.Set(constants.ClientRequestIDHeader, requestID)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", transportError(ctx, "analyze request failed", err)
	}
	defer httpc.Drain(resp)

	if !httpc.IsSuccess(resp.StatusCode) {
		return "", utils.NewHTTPStatusError(resp.StatusCode,
			httpc.ReadExcerpt(resp.Body, constants.ErrorBodyExcerpt)).
			WithContext("request_id", requestID)
	}

	location := resp.Header.Get(constants.OperationLocationHeader)
	if location == "" {
		return "", utils.NewError(utils.ErrorTypeProtocol,
			"analyze response has no Operation-Location header", nil).
			WithContext("request_id", requestID)
	}
	return location, nil
}

// poll fetches the operation result until it reaches a terminal status
func (e *AzureReadEngine) poll(ctx context.Context, creds *config.Credentials, operationURL, requestID string, log *logger.Logger) ([]byte, error) {
	timer := time.NewTimer(e.pollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= e.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, utils.NewTimeoutError("cancelled while waiting for OCR result", ctx.Err())
		case <-timer.C:
		}
		timer.Reset(e.pollInterval)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return nil, utils.NewError(utils.ErrorTypeProtocol, "invalid Operation-Location URL", err)
		}
		req.Header.Set(constants.SubscriptionKeyHeader, creds.APIKey)
		req.Header.Set(constants.ClientRequestIDHeader, requestID)

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, transportError(ctx, "result request failed", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, transportError(ctx, "failed to read result body", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Debug("Poll %d/%d throttled", attempt, e.maxPolls)
			continue
		}
		if !httpc.IsSuccess(resp.StatusCode) {
			return nil, utils.NewHTTPStatusError(resp.StatusCode, excerpt(body)).
				WithContext("request_id", requestID)
		}

		switch status := resultStatus(body); status {
		case constants.StatusSucceeded:
			log.Debug("Analysis succeeded after %d polls", attempt)
			return body, nil
		case constants.StatusFailed:
			return nil, utils.NewOCRError("cloud OCR analysis failed", nil).
				WithContext("request_id", requestID)
		default:
			log.Debug("Poll %d/%d status %q", attempt, e.maxPolls, status)
		}
	}

	return nil, utils.NewTimeoutError(
		fmt.Sprintf("OCR result not ready after %d polls", e.maxPolls), nil).
		WithContext("request_id", requestID)
}

// BuildAnalyzeURL joins the endpoint with the Read analyze path and query.
// A missing trailing slash on the endpoint is added.
func BuildAnalyzeURL(endpoint, language, readingOrder string) (string, error) {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	u, err := url.Parse(endpoint + constants.ReadAnalyzePath)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", utils.NewConfigurationError(fmt.Sprintf("invalid endpoint %q", endpoint), err)
	}

	q := u.Query()
	if language != "" {
		q.Set("language", language)
	}
	if readingOrder != "" {
		q.Set("readingOrder", readingOrder)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resultStatus returns the lower-cased status of a result body, or "" when absent.
// Bodies that are not JSON are probed textually.
func resultStatus(body []byte) string {
	if gjson.ValidBytes(body) {
		return strings.ToLower(gjson.GetBytes(body, "status").String())
	}
	s := string(body)
	switch {
	case strings.Contains(s, `"status":"succeeded"`):
		return constants.StatusSucceeded
	case strings.Contains(s, `"status":"failed"`):
		return constants.StatusFailed
	}
	return ""
}

type readResponse struct {
	AnalyzeResult struct {
		ReadResults []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

// flattenReadResult joins every line of every page with "\n" in document order
func flattenReadResult(body []byte) (string, error) {
	var parsed readResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, page := range parsed.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(line.Text)
		}
	}
	return sb.String(), nil
}

func transportError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return utils.NewTimeoutError(message, ctxErr)
	}
	return utils.NewNetworkError(message, err)
}

func excerpt(body []byte) string {
	if len(body) > constants.ErrorBodyExcerpt {
		return string(body[:constants.ErrorBodyExcerpt])
	}
	return string(body)
}

// readImageFile validates and reads an image for recognition
func readImageFile(imagePath string) ([]byte, error) {
	if imagePath == "" {
		return nil, utils.NewValidationError("image path is empty", nil)
	}

	info, err := os.Stat(imagePath)
	if os.IsNotExist(err) {
		return nil, utils.NewNotFoundError(fmt.Sprintf("image not found: %s", imagePath), err)
	}
	if err != nil {
		return nil, utils.WrapError(err, "", "cannot access image")
	}
	if info.IsDir() {
		return nil, utils.NewValidationError(fmt.Sprintf("%s is a directory", imagePath), nil)
	}
	if info.Size() > constants.MaxImageSize {
		return nil, utils.NewValidationError(
			fmt.Sprintf("image is %d bytes, limit is %d", info.Size(), constants.MaxImageSize), nil)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, utils.NewIOError("failed to read image", err)
	}
	return data, nil
}
