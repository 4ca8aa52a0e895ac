package links

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// MetaTags holds the page-level metadata a post can be built from.
// The first occurrence of each tag wins.
type MetaTags struct {
	Title              string
	Description        string
	OGTitle            string
	OGDescription      string
	OGImage            string
	OGType             string
	TwitterTitle       string
	TwitterDescription string
	TwitterImage       string
	Author             string
	PublishedTime      string
}

// JSONLD holds the article fields of an embedded schema.org block.
type JSONLD struct {
	Title       string
	Description string
	Author      string
	PublishedAt string
	Image       string
}

// ParseDocument parses decoded markup into a goquery document.
func ParseDocument(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return doc, nil
}

// ReadMetaTags collects <title> and <meta> values from doc.
func ReadMetaTags(doc *goquery.Document) MetaTags {
	var meta MetaTags

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("property", "")
		if name == "" {
			name = s.AttrOr("name", "")
		}

		content, ok := s.Attr("content")
		if !ok {
			return
		}

		applyMetaTag(&meta, strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(content))
	})

	return meta
}

func applyMetaTag(meta *MetaTags, name, content string) {
	if content == "" {
		return
	}

	var target *string

	switch name {
	case "description":
		target = &meta.Description
	case "author":
		target = &meta.Author
	case "og:title":
		target = &meta.OGTitle
	case "og:description":
		target = &meta.OGDescription
	case "og:image", "og:image:url", "og:image:secure_url":
		target = &meta.OGImage
	case "og:type":
		target = &meta.OGType
	case "twitter:title":
		target = &meta.TwitterTitle
	case "twitter:description":
		target = &meta.TwitterDescription
	case "twitter:image", "twitter:image:src":
		target = &meta.TwitterImage
	case "article:published_time", "og:published_time", "pubdate", "date":
		target = &meta.PublishedTime
	default:
		return
	}

	if *target == "" {
		*target = content
	}
}

// ReadJSONLD scans application/ld+json scripts for an article description.
func ReadJSONLD(doc *goquery.Document) JSONLD {
	var ld JSONLD

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}

		processLDValue(v, &ld)
	})

	return ld
}

func processLDValue(v any, ld *JSONLD) {
	switch m := v.(type) {
	case map[string]any:
		extractFromLDMap(m, ld)

		if graph, ok := m["@graph"].([]any); ok {
			for _, item := range graph {
				processLDValue(item, ld)
			}
		}
	case []any:
		for _, item := range m {
			processLDValue(item, ld)
		}
	}
}

func extractFromLDMap(m map[string]any, ld *JSONLD) {
	if !isArticleType(m["@type"]) {
		return
	}

	if title, ok := m["headline"].(string); ok && ld.Title == "" {
		ld.Title = title
	}

	if desc, ok := m["description"].(string); ok && ld.Description == "" {
		ld.Description = desc
	}

	if date, ok := m["datePublished"].(string); ok && ld.PublishedAt == "" {
		ld.PublishedAt = date
	}

	if author, ok := m["author"]; ok && ld.Author == "" {
		ld.Author = extractLDName(author, "name")
	}

	if image, ok := m["image"]; ok && ld.Image == "" {
		ld.Image = extractLDName(image, "url")
	}
}

func isArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "NewsArticle" || t == "Article" || t == "BlogPosting" || t == "SocialMediaPosting"
	case []any:
		for _, item := range t {
			if isArticleType(item) {
				return true
			}
		}
	}

	return false
}

func extractLDName(v any, key string) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		if name, ok := a[key].(string); ok {
			return name
		}
	case []any:
		if len(a) > 0 {
			return extractLDName(a[0], key)
		}
	}

	return ""
}

// ParseDate accepts the loose date formats found in meta tags and feeds.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}

	t = t.UTC()

	return &t
}

// Coalesce returns the first non-blank string.
func Coalesce(strs ...string) string {
	for _, s := range strs {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}

	return ""
}
