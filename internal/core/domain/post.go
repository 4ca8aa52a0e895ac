package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lueurxax/postmeta/internal/platform/htmlutils"
)

// Source tags where a post came from.
type Source string

const (
	SourceVK       Source = "vk"
	SourceTelegram Source = "telegram"
	SourceWeb      Source = "web"
)

// MediaType classifies a media URL.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaItem is a single entry of a post's media list.
type MediaItem struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// ExtractedPost is the normalized record returned for a URL.
type ExtractedPost struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	Image       string      `json:"image"`
	MediaList   []MediaItem `json:"mediaList"`
	Source      Source      `json:"source"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
}

// Ellipsis marks truncated text.
const Ellipsis = "..."

const (
	DefaultTitle               = "Новости"
	DefaultTitleMaxChars       = 100
	DefaultDescriptionMaxChars = 255
	DefaultMediaMaxItems       = 15
)

// Limits bounds the normalized output.
type Limits struct {
	TitleMaxChars       int
	DescriptionMaxChars int
	MediaMaxItems       int
	DefaultTitle        string
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		TitleMaxChars:       DefaultTitleMaxChars,
		DescriptionMaxChars: DefaultDescriptionMaxChars,
		MediaMaxItems:       DefaultMediaMaxItems,
		DefaultTitle:        DefaultTitle,
	}
}

// WithDefaults fills unset fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()

	if l.TitleMaxChars <= 0 {
		l.TitleMaxChars = d.TitleMaxChars
	}

	if l.DescriptionMaxChars <= 0 {
		l.DescriptionMaxChars = d.DescriptionMaxChars
	}

	if l.MediaMaxItems <= 0 {
		l.MediaMaxItems = d.MediaMaxItems
	}

	if strings.TrimSpace(l.DefaultTitle) == "" {
		l.DefaultTitle = d.DefaultTitle
	}

	return l
}

// Truncate cuts s to max runes and appends Ellipsis when it had to cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)

	return strings.TrimSpace(string(runes[:max])) + Ellipsis
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return ""
}

// TitleFromContent derives a headline from the first non-blank line of content.
func TitleFromContent(content string, max int) string {
	return Truncate(FirstLine(content), max)
}

// Normalize enforces the output invariants: plain-text description and content,
// a non-empty title, a de-duplicated capped media list whose first image is the cover.
func Normalize(p *ExtractedPost, limits Limits) *ExtractedPost {
	limits = limits.WithDefaults()

	p.Content = plainText(p.Content)
	description := plainText(p.Description)

	if p.Content == "" {
		p.Content = description
	}

	if description == "" {
		description = p.Content
	}

	p.Description = Truncate(description, limits.DescriptionMaxChars)

	p.Title = strings.TrimSpace(htmlutils.StripHTMLTags(p.Title))
	if p.Title == "" {
		p.Title = TitleFromContent(p.Content, limits.TitleMaxChars)
	}

	if p.Title == "" {
		p.Title = limits.DefaultTitle
	}

	p.MediaList, p.Image = normalizeMedia(p.MediaList, strings.TrimSpace(p.Image), limits.MediaMaxItems)

	return p
}

func plainText(s string) string {
	s = strings.TrimSpace(s)
	if htmlutils.HasTags(s) {
		return htmlutils.StripToPlainText(s)
	}

	return s
}

func normalizeMedia(items []MediaItem, cover string, max int) ([]MediaItem, string) {
	out := make([]MediaItem, 0, len(items)+1)
	seen := make(map[string]bool, len(items)+1)

	if cover != "" {
		out = append(out, MediaItem{URL: cover, Type: MediaImage})
		seen[mediaKey(cover)] = true
	}

	for _, item := range items {
		item.URL = strings.TrimSpace(item.URL)
		if item.URL == "" || seen[mediaKey(item.URL)] {
			continue
		}

		if item.Type != MediaVideo {
			item.Type = MediaImage
		}

		seen[mediaKey(item.URL)] = true
		out = append(out, item)
	}

	if len(out) > max {
		out = out[:max]
	}

	if cover == "" {
		for _, item := range out {
			if item.Type == MediaImage {
				cover = item.URL
				break
			}
		}
	}

	return out, cover
}

// mediaKey treats http and https variants of a URL as the same media.
func mediaKey(rawURL string) string {
	return strings.TrimPrefix(UpgradeScheme(rawURL), "https://")
}

// UpgradeScheme rewrites an http:// URL to https://.
func UpgradeScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}

	return rawURL
}
