// Package httpc provides the HTTP clients used for cloud OCR and model downloads.
// Always use these instead of http.DefaultClient so timeouts are set.
package httpc

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/nodewee/capture-ocr/pkg/constants"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DownloadTimeout        = 10 * time.Minute
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// UserAgent is sent with every request
var UserAgent = constants.AppName

// Client is the shared client for short API calls.
var Client = NewClient(DefaultTimeout)

// Downloader is the shared client for large file downloads.
var Downloader = NewClient(DownloadTimeout)

// NewClient creates a new HTTP client with the specified overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{base: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	return t.base.RoundTrip(req)
}

// IsSuccess reports whether the status code is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// ReadExcerpt reads at most limit bytes of r, for use in error messages.
func ReadExcerpt(r io.Reader, limit int) string {
	data, _ := io.ReadAll(io.LimitReader(r, int64(limit)))
	return string(data)
}

// Drain discards the rest of the body and closes it so the connection can be reused.
func Drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
