package httpc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSetsUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second).Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	Drain(resp)

	if got := <-agents; got != UserAgent {
		t.Errorf("User-Agent = %q, want %q", got, UserAgent)
	}
}

func TestIsSuccess(t *testing.T) {
	for code, want := range map[int]bool{200: true, 202: true, 299: true, 199: false, 301: false, 429: false, 500: false} {
		if IsSuccess(code) != want {
			t.Errorf("IsSuccess(%d) = %v", code, !want)
		}
	}
}

func TestReadExcerpt(t *testing.T) {
	if got := ReadExcerpt(strings.NewReader("abcdef"), 3); got != "abc" {
		t.Errorf("ReadExcerpt = %q", got)
	}
	Drain(nil)
	Drain(&http.Response{Body: io.NopCloser(strings.NewReader("rest"))})
}
