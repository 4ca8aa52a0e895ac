package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/core/media"
	"github.com/lueurxax/postmeta/internal/core/ports"
	"github.com/lueurxax/postmeta/internal/platform/textdecode"
)

// Extractor holds the per-source extraction strategies.
type Extractor struct {
	fetcher   ports.PageFetcher
	vk        ports.VKClient
	collector *media.Collector
	limits    domain.Limits
	logger    *zerolog.Logger
}

func NewExtractor(fetcher ports.PageFetcher, vkClient ports.VKClient, collector *media.Collector, limits domain.Limits, logger *zerolog.Logger) *Extractor {
	if collector == nil {
		collector = media.NewCollector(nil, limits.MediaMaxItems)
	}

	return &Extractor{
		fetcher:   fetcher,
		vk:        vkClient,
		collector: collector,
		limits:    limits.WithDefaults(),
		logger:    logger,
	}
}

type loadedPage struct {
	url    *url.URL
	markup string
	doc    *goquery.Document
	meta   links.MetaTags
}

func (e *Extractor) load(ctx context.Context, rawURL string, opts ...links.RequestOption) (*loadedPage, error) {
	page, err := e.fetcher.Fetch(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}

	markup := textdecode.Resolve(page.Body, page.ContentType)

	doc, err := links.ParseDocument(markup)
	if err != nil {
		return nil, err
	}

	finalURL := page.URL
	if finalURL == "" {
		finalURL = rawURL
	}

	u, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse final url: %w", err)
	}

	return &loadedPage{
		url:    u,
		markup: markup,
		doc:    doc,
		meta:   links.ReadMetaTags(doc),
	}, nil
}

// absolute resolves ref against the page URL and upgrades it to https.
func (p *loadedPage) absolute(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	return domain.UpgradeScheme(p.url.ResolveReference(u).String())
}

// specificTitle drops platform boilerplate titles.
func (e *Extractor) specificTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || e.collector.Rules().IsGenericTitle(title) {
		return ""
	}

	return title
}
