package mocks

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
)

const htmlContentType = "text/html; charset=utf-8"

// PageFetcher is a thread-safe in-memory implementation of ports.PageFetcher.
type PageFetcher struct {
	mu    sync.RWMutex
	pages map[string]*links.Page
	calls []string

	// FetchFn allows overriding Fetch behavior.
	FetchFn func(ctx context.Context, rawURL string, opts ...links.RequestOption) (*links.Page, error)
}

// NewPageFetcher creates an empty mock fetcher.
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{pages: make(map[string]*links.Page)}
}

// Fetch returns the registered page or an HTTP 404 error.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string, opts ...links.RequestOption) (*links.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	if f.FetchFn != nil {
		return f.FetchFn(ctx, rawURL, opts...)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	page, ok := f.pages[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %w: 404", ErrPageNotFound, apperrors.ErrHTTPStatusNotOK)
	}

	return page, nil
}

// SetHTML registers a UTF-8 HTML page for rawURL.
func (f *PageFetcher) SetHTML(rawURL, markup string) {
	f.SetPage(rawURL, &links.Page{URL: rawURL, StatusCode: 200, ContentType: htmlContentType, Body: []byte(markup)})
}

// SetPage registers a raw page for rawURL.
func (f *PageFetcher) SetPage(rawURL string, page *links.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pages[rawURL] = page
}

// Calls returns every requested URL in order.
func (f *PageFetcher) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]string(nil), f.calls...)
}
