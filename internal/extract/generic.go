package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/platform/htmlutils"
)

// ExtractGeneric builds a post from Open Graph, Twitter card, JSON-LD and
// readability data. Feeds are recognized and read from their first item.
func (e *Extractor) ExtractGeneric(ctx context.Context, rawURL string) (*domain.ExtractedPost, error) {
	page, err := e.load(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	if post, ok := e.fromFeed(page); ok {
		return post, nil
	}

	meta := page.meta
	ld := links.ReadJSONLD(page.doc)

	title := links.Coalesce(
		e.specificTitle(meta.OGTitle),
		e.specificTitle(meta.TwitterTitle),
		e.specificTitle(meta.Title),
		e.specificTitle(ld.Title),
	)
	description := links.Coalesce(meta.OGDescription, meta.TwitterDescription, meta.Description, ld.Description)
	image := links.Coalesce(meta.OGImage, meta.TwitterImage, ld.Image)
	publishedAt := links.ParseDate(links.Coalesce(meta.PublishedTime, ld.PublishedAt))
	content := description

	article, err := readability.FromReader(strings.NewReader(page.markup), page.url)
	if err != nil {
		e.logger.Debug().Err(err).Str(logKeyURL, rawURL).Msg("readability failed, using meta tags only")
	} else {
		if body := htmlutils.TidyLines(article.TextContent); utf8.RuneCountInString(body) > utf8.RuneCountInString(description) {
			content = body
		}

		if title == "" {
			title = e.specificTitle(article.Title)
		}

		if image == "" {
			image = article.Image
		}

		if publishedAt == nil && article.PublishedTime != nil {
			t := article.PublishedTime.UTC()
			publishedAt = &t
		}
	}

	return &domain.ExtractedPost{
		Title:       title,
		Description: description,
		Content:     content,
		Image:       page.absolute(image),
		MediaList:   e.collector.Collect(page.markup, page.url),
		Source:      domain.SourceWeb,
		PublishedAt: publishedAt,
	}, nil
}

func (e *Extractor) fromFeed(page *loadedPage) (*domain.ExtractedPost, bool) {
	feed, err := gofeed.NewParser().ParseString(page.markup)
	if err != nil || len(feed.Items) == 0 {
		return nil, false
	}

	item := feed.Items[0]

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	}

	items := make([]domain.MediaItem, 0, len(item.Enclosures))

	for _, enc := range item.Enclosures {
		switch {
		case strings.HasPrefix(enc.Type, "image/"):
			items = append(items, domain.MediaItem{URL: enc.URL, Type: domain.MediaImage})
			image = links.Coalesce(image, enc.URL)
		case strings.HasPrefix(enc.Type, "video/"):
			items = append(items, domain.MediaItem{URL: enc.URL, Type: domain.MediaVideo})
		}
	}

	return &domain.ExtractedPost{
		Title:       item.Title,
		Description: item.Description,
		Content:     links.Coalesce(item.Content, item.Description),
		Image:       page.absolute(image),
		MediaList:   items,
		Source:      domain.SourceWeb,
		PublishedAt: feedDate(item),
	}, true
}

func feedDate(item *gofeed.Item) *time.Time {
	for _, t := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if t != nil {
			utc := t.UTC()
			return &utc
		}
	}

	return nil
}
