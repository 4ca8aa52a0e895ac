package media

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/platform/htmlutils"
)

var backgroundImageRe = regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// Collector gathers candidate media URLs from a page.
type Collector struct {
	rules    *Matcher
	maxItems int
}

func NewCollector(rules *Matcher, maxItems int) *Collector {
	if rules == nil {
		rules = DefaultMatcher()
	}

	if maxItems <= 0 {
		maxItems = domain.DefaultMediaMaxItems
	}

	return &Collector{rules: rules, maxItems: maxItems}
}

// Rules exposes the compiled table the collector filters with.
func (c *Collector) Rules() *Matcher {
	return c.rules
}

// Collect returns de-duplicated, filtered and classified media found in markup.
// Sources are visited in a fixed order so that page-level images come first.
// Relative references are resolved against base; with a nil base they are skipped.
func (c *Collector) Collect(markup string, base *url.URL) []domain.MediaItem {
	set := newURLSet()
	set.base = base

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		c.collectDocument(doc, set)
	}

	for _, u := range c.rules.FindCDN(markup) {
		set.add(htmlutils.DecodeEntities(u))
	}

	return c.finish(set.urls)
}

// CDNImages returns only the user-content CDN links found in markup.
func (c *Collector) CDNImages(markup string) []domain.MediaItem {
	set := newURLSet()

	for _, u := range c.rules.FindCDN(markup) {
		set.add(htmlutils.DecodeEntities(u))
	}

	return c.finish(set.urls)
}

func (c *Collector) collectDocument(doc *goquery.Document, set *urlSet) {
	// og:image
	doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		set.addResolved(s.AttrOr("content", ""))
	})

	// inline and stylesheet backgrounds
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		set.addResolvedAll(backgroundURLs(s.AttrOr("style", "")))
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		set.addResolvedAll(backgroundURLs(s.Text()))
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		set.addResolved(s.AttrOr("src", ""))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href := withScheme(s.AttrOr("href", "")); c.rules.IsVideoLink(href) {
			set.add(href)
		}
	})

	doc.Find("[data-src]").Each(func(_ int, s *goquery.Selection) {
		set.addResolved(s.AttrOr("data-src", ""))
	})

	doc.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		set.addSrcset(s.AttrOr("srcset", ""))
	})

	doc.Find("[data-webp]").Each(func(_ int, s *goquery.Selection) {
		set.addResolved(s.AttrOr("data-webp", ""))
	})

	doc.Find("[data-srcset]").Each(func(_ int, s *goquery.Selection) {
		set.addSrcset(s.AttrOr("data-srcset", ""))
	})
}

func (c *Collector) finish(urls []string) []domain.MediaItem {
	items := make([]domain.MediaItem, 0, len(urls))

	for _, u := range urls {
		if c.rules.IsGarbage(u) {
			continue
		}

		items = append(items, domain.MediaItem{URL: u, Type: c.rules.TypeOf(u)})
		if len(items) == c.maxItems {
			break
		}
	}

	return items
}

func backgroundURLs(css string) []string {
	matches := backgroundImageRe.FindAllStringSubmatch(css, -1)
	out := make([]string, 0, len(matches))

	for _, m := range matches {
		out = append(out, m[1])
	}

	return out
}

type urlSet struct {
	seen map[string]bool
	urls []string
	base *url.URL
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]bool)}
}

func (s *urlSet) add(raw string) {
	u := withScheme(raw)
	if u == "" || s.seen[u] {
		return
	}

	s.seen[u] = true
	s.urls = append(s.urls, u)
}

func (s *urlSet) addResolvedAll(raws []string) {
	for _, raw := range raws {
		s.addResolved(raw)
	}
}

// addResolved keeps http(s) URLs, resolving relative references against the base.
func (s *urlSet) addResolved(raw string) {
	if u := s.resolve(raw); u != "" {
		s.add(u)
	}
}

func (s *urlSet) resolve(raw string) string {
	u := withScheme(raw)
	if u == "" || strings.HasPrefix(strings.ToLower(u), "data:") {
		return ""
	}

	ref, err := url.Parse(u)
	if err != nil {
		return ""
	}

	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}

		return u
	}

	if s.base == nil {
		return ""
	}

	return s.base.ResolveReference(ref).String()
}

// addSrcset takes the URL part of every srcset candidate.
func (s *urlSet) addSrcset(srcset string) {
	for _, candidate := range strings.Split(srcset, ",") {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			s.addResolved(fields[0])
		}
	}
}

func withScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}

	return raw
}
