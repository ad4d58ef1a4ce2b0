package engines

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nodewee/capture-ocr/pkg/config"
	"github.com/nodewee/capture-ocr/pkg/logger"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

const succeededBody = `{
  "status": "succeeded",
  "analyzeResult": {
    "readResults": [
      {"page": 1, "lines": [{"text": "A"}, {"text": "B"}]},
      {"page": 2, "lines": [{"text": "C"}]}
    ]
  }
}`

// readServer fakes the analyze and result endpoints. poll is called with the
// 1-based poll number and returns the status code and body to send.
type readServer struct {
	*httptest.Server
	polls atomic.Int32

	mu       sync.Mutex
	lastPost *http.Request
	postBody []byte
}

func (rs *readServer) post() (*http.Request, []byte) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastPost, rs.postBody
}

func newReadServer(t *testing.T, poll func(n int) (int, string)) *readServer {
	t.Helper()
	rs := &readServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			rs.mu.Lock()
			rs.lastPost, rs.postBody = r, body
			rs.mu.Unlock()
			w.Header().Set("Operation-Location", rs.URL+"/operations/42")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			n := int(rs.polls.Add(1))
			code, body := poll(n)
			w.WriteHeader(code)
			io.WriteString(w, body)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestAzureEngine(endpoint string, maxPolls int) *AzureReadEngine {
	return NewAzureReadEngine(config.NewConfig(), logger.NewTestLogger(),
		WithCredentials(&config.Credentials{Endpoint: endpoint, APIKey: "secret-key"}),
		WithPolling(time.Millisecond, maxPolls),
	)
}

func TestRecognizeFlattensLinesInOrder(t *testing.T) {
	srv := newReadServer(t, func(n int) (int, string) {
		if n < 3 {
			return http.StatusOK, `{"status":"running"}`
		}
		return http.StatusOK, succeededBody
	})

	text, err := newTestAzureEngine(srv.URL, 10).Recognize(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "A\nB\nC" {
		t.Errorf("text = %q, want %q", text, "A\nB\nC")
	}
	if got := srv.polls.Load(); got != 3 {
		t.Errorf("polls = %d, want 3", got)
	}
}

func TestRecognizeSendsExpectedRequest(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) { return http.StatusOK, succeededBody })

	if _, err := newTestAzureEngine(srv.URL, 1).Recognize(context.Background(), []byte("png-bytes")); err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	req, body := srv.post()
	if req.URL.Path != "/vision/v3.2/read/analyze" {
		t.Errorf("path = %q", req.URL.Path)
	}
	if got := req.URL.Query().Get("language"); got != "ja" {
		t.Errorf("language = %q, want ja", got)
	}
	if got := req.URL.Query().Get("readingOrder"); got != "basic" {
		t.Errorf("readingOrder = %q, want basic", got)
	}
	if got := req.Header.Get("Ocp-Apim-Subscription-Key"); got != "secret-key" {
		t.Errorf("subscription key = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("content type = %q", got)
	}
	if req.Header.Get("x-ms-client-request-id") == "" {
		t.Error("missing client request id")
	}
	if string(body) != "png-bytes" {
		t.Errorf("body = %q", body)
	}
}

func TestRecognizeReturnsRawBodyWhenResultIsNotJSON(t *testing.T) {
	raw := `{"status":"succeeded","analyzeResult": <truncated`
	srv := newReadServer(t, func(int) (int, string) { return http.StatusOK, raw })

	text, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != raw {
		t.Errorf("text = %q, want raw body", text)
	}
}

func TestRecognizeEmptyResult(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) {
		return http.StatusOK, `{"status":"succeeded","analyzeResult":{"readResults":[{"lines":[]}]}}`
	})

	text, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestRecognizeTimesOutAfterMaxPolls(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) { return http.StatusOK, `{"status":"running"}` })

	_, err := newTestAzureEngine(srv.URL, 3).Recognize(context.Background(), []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if got := srv.polls.Load(); got != 3 {
		t.Errorf("polls = %d, want 3", got)
	}
}

func TestRecognizeThrottledPollIsRetried(t *testing.T) {
	srv := newReadServer(t, func(n int) (int, string) {
		if n == 1 {
			return http.StatusTooManyRequests, `{"error":{"code":"429"}}`
		}
		return http.StatusOK, succeededBody
	})

	text, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "A\nB\nC" {
		t.Errorf("text = %q", text)
	}
}

func TestRecognizeFailedStatus(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) { return http.StatusOK, `{"status":"failed"}` })

	_, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeOCR) {
		t.Fatalf("err = %v, want ocr error", err)
	}
}

func TestRecognizePollHTTPError(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) { return http.StatusInternalServerError, "boom" })

	_, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeHTTPStatus) {
		t.Fatalf("err = %v, want http_status", err)
	}
}

func TestRecognizeRejectedSubmission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":"401","message":"Access denied"}}`)
	}))
	defer srv.Close()

	_, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.Type != utils.ErrorTypeHTTPStatus {
		t.Fatalf("err = %v, want http_status", err)
	}
	if appErr.Context["status_code"] != http.StatusUnauthorized {
		t.Errorf("status_code = %v", appErr.Context["status_code"])
	}
	if !strings.Contains(appErr.Message, "Access denied") {
		t.Errorf("message %q lacks body excerpt", appErr.Message)
	}
}

func TestRecognizeMissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := newTestAzureEngine(srv.URL, 5).Recognize(context.Background(), []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeProtocol) {
		t.Fatalf("err = %v, want protocol error", err)
	}
}

func TestRecognizeCancelledWhilePolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newReadServer(t, func(int) (int, string) {
		cancel()
		return http.StatusOK, `{"status":"running"}`
	})

	_, err := newTestAzureEngine(srv.URL, 1000).Recognize(ctx, []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want it to wrap context.Canceled", err)
	}
}

func TestRecognizeEmptyImage(t *testing.T) {
	_, err := newTestAzureEngine("http://unused.invalid", 1).Recognize(context.Background(), nil)
	if !utils.IsErrorType(err, utils.ErrorTypeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestRecognizeLoadsCredentialsFile(t *testing.T) {
	srv := newReadServer(t, func(int) (int, string) { return http.StatusOK, succeededBody })

	credsPath := filepath.Join(t.TempDir(), "azurevision.json")
	body := `{"Endpoint": "` + srv.URL + `/", "ApiKey": "from-file"}`
	if err := os.WriteFile(credsPath, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig()
	cfg.CredentialsPath = credsPath
	engine := NewAzureReadEngine(cfg, logger.NewTestLogger(), WithPolling(time.Millisecond, 2))

	if !engine.IsAvailable() {
		t.Fatal("engine should be available when the credentials file exists")
	}
	if _, err := engine.Recognize(context.Background(), []byte("x")); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	req, _ := srv.post()
	if got := req.Header.Get("Ocp-Apim-Subscription-Key"); got != "from-file" {
		t.Errorf("subscription key = %q", got)
	}
}

func TestRecognizeMissingCredentials(t *testing.T) {
	cfg := config.NewConfig()
	cfg.CredentialsPath = filepath.Join(t.TempDir(), "absent.json")
	engine := NewAzureReadEngine(cfg, logger.NewTestLogger())

	if engine.IsAvailable() {
		t.Error("engine should not be available without a credentials file")
	}
	_, err := engine.Recognize(context.Background(), []byte("x"))
	if !utils.IsErrorType(err, utils.ErrorTypeConfiguration) {
		t.Fatalf("err = %v, want configuration", err)
	}
}

func TestExtractTextFromMissingImage(t *testing.T) {
	engine := newTestAzureEngine("http://unused.invalid", 1)
	_, err := engine.ExtractTextFromImage(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if !utils.IsErrorType(err, utils.ErrorTypeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestBuildAnalyzeURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		wantErr  bool
	}{
		{
			endpoint: "https://example.cognitiveservices.azure.com/",
			want:     "https://example.cognitiveservices.azure.com/vision/v3.2/read/analyze?language=ja&readingOrder=basic",
		},
		{
			endpoint: "https://example.cognitiveservices.azure.com",
			want:     "https://example.cognitiveservices.azure.com/vision/v3.2/read/analyze?language=ja&readingOrder=basic",
		},
		{endpoint: "not a url", wantErr: true},
		{endpoint: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := BuildAnalyzeURL(tt.endpoint, "ja", "basic")
		if tt.wantErr {
			if !utils.IsErrorType(err, utils.ErrorTypeConfiguration) {
				t.Errorf("BuildAnalyzeURL(%q) err = %v, want configuration", tt.endpoint, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("BuildAnalyzeURL(%q): %v", tt.endpoint, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BuildAnalyzeURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestAnalyzeURLLanguage(t *testing.T) {
	tests := []struct {
		language string
		want     string
	}{
		{"", "ja"},
		{"jpn", "ja"},
		{"jpn+eng", "ja"},
		{"eng,jpn", "en"},
		{"chi_sim", "zh-Hans"},
		{"chi_tra", "zh-Hant"},
		{"ja-JP", "ja"},
		{"zh-TW", "zh-Hant"},
		{"Klingon!", "ja"},
	}
	for _, tt := range tests {
		cfg := config.NewConfig()
		cfg.Language = tt.language
		engine := NewAzureReadEngine(cfg, logger.NewTestLogger())

		got, err := BuildAnalyzeURL("https://example.cognitiveservices.azure.com/", engine.language, engine.readingOrder)
		if err != nil {
			t.Fatalf("BuildAnalyzeURL: %v", err)
		}
		want := "https://example.cognitiveservices.azure.com/vision/v3.2/read/analyze?language=" + tt.want + "&readingOrder=basic"
		if got != want {
			t.Errorf("language %q: url = %q, want %q", tt.language, got, want)
		}
	}
}

func TestResultStatus(t *testing.T) {
	tests := map[string]string{
		`{"status":"Succeeded"}`:          "succeeded",
		`{"status":"running"}`:            "running",
		`{}`:                              "",
		`garbage "status":"failed" more`:  "failed",
		`garbage "status":"succeeded" ..`: "succeeded",
		`plain text`:                      "",
	}
	for body, want := range tests {
		if got := resultStatus([]byte(body)); got != want {
			t.Errorf("resultStatus(%q) = %q, want %q", body, got, want)
		}
	}
}
