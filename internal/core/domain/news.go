package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
)

// Import actions reported per upserted post.
const (
	ImportInserted = "inserted"
	ImportUpdated  = "updated"
)

// ImportPost is a news post submitted for storage.
type ImportPost struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Category    string     `json:"category"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Source      string     `json:"source,omitempty"`
	SourceID    string     `json:"source_id,omitempty"`
}

// ImportResult reports what happened to one ImportPost.
type ImportResult struct {
	Slug     string `json:"slug"`
	Action   string `json:"action"`
	ImageURL string `json:"image_url"`
}

var contentImageRe = regexp.MustCompile(`(?i)(https?://[^\s"'<>]+\.(?:png|jpe?g|webp|gif))(?:\?[^\s"'<>]*)?`)

// FirstImageURL returns the first image link found in free text or markup,
// without its query string.
func FirstImageURL(content string) string {
	if m := contentImageRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}

	return ""
}

// Field limits for ImportPost.
const (
	ImportTitleMaxChars    = 500
	ImportSlugMaxChars     = 500
	ImportCategoryMaxChars = 100
	ImportExcerptMaxChars  = 1000
	ImportSourceMaxChars   = 50
	ImportSourceIDMaxChars = 200
	ImportBatchMaxPosts    = 200
)

// Validate checks field presence and length limits. Lengths are counted in runes.
func (p ImportPost) Validate() error {
	var errs []error

	required := []struct {
		field string
		value string
		max   int
	}{
		{"title", p.Title, ImportTitleMaxChars},
		{"slug", p.Slug, ImportSlugMaxChars},
		{"category", p.Category, ImportCategoryMaxChars},
		{"content", p.Content, 0},
	}

	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", apperrors.ErrInvalidInput, r.field))
			continue
		}

		if r.max > 0 && utf8.RuneCountInString(r.value) > r.max {
			errs = append(errs, fmt.Errorf("%w: %s exceeds %d characters", apperrors.ErrInvalidInput, r.field, r.max))
		}
	}

	optional := []struct {
		field string
		value string
		max   int
	}{
		{"excerpt", p.Excerpt, ImportExcerptMaxChars},
		{"source", p.Source, ImportSourceMaxChars},
		{"source_id", p.SourceID, ImportSourceIDMaxChars},
	}

	for _, o := range optional {
		if utf8.RuneCountInString(o.value) > o.max {
			errs = append(errs, fmt.Errorf("%w: %s exceeds %d characters", apperrors.ErrInvalidInput, o.field, o.max))
		}
	}

	if p.ImageURL != "" {
		if u, err := url.Parse(p.ImageURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: image_url is not a valid URL", apperrors.ErrInvalidInput))
		}
	}

	return errors.Join(errs...)
}

// CoverImage is the explicit image_url, or the first image link in the content.
func (p ImportPost) CoverImage() string {
	if p.ImageURL != "" {
		return p.ImageURL
	}

	return FirstImageURL(p.Content)
}
