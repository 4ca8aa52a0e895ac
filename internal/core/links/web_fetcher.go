package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

const (
	defaultFetchTimeoutSeconds = 15
	globalLimiterBurst         = 5
	maxRedirects               = 5
	maxBodySizeMB              = 5
	maxBodySizeBytes           = maxBodySizeMB * 1024 * 1024
	domainLimiterRate          = 1
	domainLimiterBurst         = 2
)

// Header values sent with every page fetch unless overridden.
const (
	DesktopUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	AcceptHTML           = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	AcceptLanguageRU     = "ru-RU,ru;q=0.9"
	AcceptLanguageMixed  = "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"
	headerUserAgent      = "User-Agent"
	headerAccept         = "Accept"
	headerAcceptLanguage = "Accept-Language"
	headerContentType    = "Content-Type"
)

// Page is a fetched document before decoding.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithAcceptLanguage overrides the Accept-Language header.
func WithAcceptLanguage(value string) RequestOption {
	return WithHeader(headerAcceptLanguage, value)
}

// WithAccept overrides the Accept header.
func WithAccept(value string) RequestOption {
	return WithHeader(headerAccept, value)
}

type WebFetcher struct {
	client         *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
	userAgent      string
}

func NewWebFetcher(rps float64, timeout time.Duration, userAgent string) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeoutSeconds * time.Second
	}

	if userAgent == "" {
		userAgent = DesktopUserAgent
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &WebFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return apperrors.ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter:  rate.NewLimiter(limit, globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
		userAgent:      userAgent,
	}
}

// Fetch downloads rawURL. Any non-2xx status is an error wrapping ErrHTTPStatusNotOK.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) (*Page, error) {
	// Global rate limit
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("global rate limiter wait: %w", err)
	}

	domain := f.extractDomain(rawURL)

	domainLimiter := f.getDomainLimiter(domain)
	if err := domainLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("domain rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, f.userAgent)
	req.Header.Set(headerAccept, AcceptHTML)
	req.Header.Set(headerAcceptLanguage, AcceptLanguageMixed)

	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		observability.FetchRequests.WithLabelValues(observability.StatusError).Inc()
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	observability.FetchDuration.Observe(time.Since(start).Seconds())
	observability.FetchRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrHTTPStatusNotOK, resp.StatusCode)
	}

	// Limit to 5MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get(headerContentType),
		Body:        body,
	}, nil
}

func (f *WebFetcher) getDomainLimiter(domain string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.domainLimiters[domain]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(domainLimiterRate, domainLimiterBurst)
	f.domainLimiters[domain] = limiter

	return limiter
}

func (f *WebFetcher) extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
