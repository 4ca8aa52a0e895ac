package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/platform/htmlutils"
)

// ExtractTelegram reads a public channel post through its embed widget.
func (e *Extractor) ExtractTelegram(ctx context.Context, rawURL string) (*domain.ExtractedPost, error) {
	embedURL := links.TelegramEmbedURL(rawURL)

	page, err := e.load(ctx, embedURL)
	if err != nil {
		return nil, fmt.Errorf("load telegram post: %w", err)
	}

	content := links.Coalesce(messageText(page), page.meta.OGDescription, page.meta.OGTitle)

	// og:title on channel posts is the channel name
	title := domain.TitleFromContent(content, e.limits.TitleMaxChars)
	if title == "" {
		title = e.specificTitle(page.meta.OGTitle)
	}

	return &domain.ExtractedPost{
		Title:       title,
		Description: content,
		Content:     content,
		Image:       page.absolute(page.meta.OGImage),
		MediaList:   e.collector.Collect(page.markup, page.url),
		Source:      domain.SourceTelegram,
		PublishedAt: telegramDate(page),
	}, nil
}

func messageText(page *loadedPage) string {
	for _, selector := range telegramTextSelectors {
		sel := page.doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		inner, err := sel.Html()
		if err != nil {
			continue
		}

		if text := htmlutils.StripToPlainText(inner); text != "" {
			return text
		}
	}

	return ""
}

func telegramDate(page *loadedPage) *time.Time {
	if dt, ok := page.doc.Find(".tgme_widget_message_date time[datetime]").First().Attr("datetime"); ok {
		return links.ParseDate(dt)
	}

	return links.ParseDate(page.meta.PublishedTime)
}
