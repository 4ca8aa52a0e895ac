package links

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
)

const (
	testDomain   = "example.com"
	testHTMLBody = "<html><body>Test content</body></html>"
)

func TestNewWebFetcher(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		timeout   time.Duration
		userAgent string
	}{
		{name: "default timeout", rps: 2.0, timeout: 0},
		{name: "custom timeout", rps: 5.0, timeout: 10 * time.Second},
		{name: "negative timeout uses default", rps: 1.0, timeout: -1 * time.Second},
		{name: "unlimited rps", rps: 0, timeout: time.Second, userAgent: "custom/1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewWebFetcher(tt.rps, tt.timeout, tt.userAgent)

			require.NotNil(t, fetcher, "NewWebFetcher() returned nil")
			require.NotNil(t, fetcher.client, "client is nil")
			require.Positive(t, fetcher.client.Timeout)
			require.NotNil(t, fetcher.globalLimiter, "globalLimiter is nil")
			require.NotNil(t, fetcher.domainLimiters, "domainLimiters is nil")
			require.NotEmpty(t, fetcher.userAgent, "userAgent is empty")
		})
	}
}

func TestWebFetcherExtractDomain(t *testing.T) {
	fetcher := NewWebFetcher(1, time.Second, "")

	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{name: "simple domain", rawURL: "https://example.com/page", want: "example.com"},
		{name: "domain with port", rawURL: "https://example.com:8080/page", want: "example.com:8080"},
		{name: "uppercase domain normalized", rawURL: "https://EXAMPLE.COM/page", want: "example.com"},
		{name: "empty URL", rawURL: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fetcher.extractDomain(tt.rawURL))
		})
	}
}

func TestWebFetcherGetDomainLimiter(t *testing.T) {
	fetcher := NewWebFetcher(1, time.Second, "")

	limiter1 := fetcher.getDomainLimiter(testDomain)
	require.NotNil(t, limiter1)
	require.Same(t, limiter1, fetcher.getDomainLimiter(testDomain))
	require.NotSame(t, limiter1, fetcher.getDomainLimiter("other.com"))
}

func TestWebFetcherFetch(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(headerUserAgent) != DesktopUserAgent {
				t.Errorf("unexpected User-Agent %q", r.Header.Get(headerUserAgent))
			}

			if r.Header.Get(headerAccept) == "" {
				t.Error("Accept header not set")
			}

			w.Header().Set(headerContentType, "text/html; charset=windows-1251")
			w.WriteHeader(http.StatusOK)

			if _, err := w.Write([]byte(testHTMLBody)); err != nil {
				t.Errorf("write response body: %v", err)
			}
		}))
		defer server.Close()

		fetcher := NewWebFetcher(10, 5*time.Second, "")

		page, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, testHTMLBody, string(page.Body))
		require.Equal(t, "text/html; charset=windows-1251", page.ContentType)
		require.Equal(t, http.StatusOK, page.StatusCode)
	})

	t.Run("request options override defaults", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get(headerAcceptLanguage); got != AcceptLanguageRU {
				t.Errorf("Accept-Language = %q", got)
			}

			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		fetcher := NewWebFetcher(10, 5*time.Second, "")

		page, err := fetcher.Fetch(context.Background(), server.URL, WithAcceptLanguage(AcceptLanguageRU))
		require.NoError(t, err)
		require.Empty(t, page.Body)
	})

	t.Run("non-2xx status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := NewWebFetcher(10, 5*time.Second, "")

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		require.True(t, errors.Is(err, apperrors.ErrHTTPStatusNotOK))
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		fetcher := NewWebFetcher(10, 5*time.Second, "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("invalid URL", func(t *testing.T) {
		fetcher := NewWebFetcher(10, 5*time.Second, "")

		_, err := fetcher.Fetch(context.Background(), "://invalid-url")
		require.Error(t, err)
	})
}

func TestWebFetcherRedirectLimit(t *testing.T) {
	redirectCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		if redirectCount <= 10 {
			http.Redirect(w, r, "/redirect", http.StatusFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetcher := NewWebFetcher(10, 5*time.Second, "")
	_, err := fetcher.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrTooManyRedirects))
}
