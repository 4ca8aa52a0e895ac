package extract

import (
	"context"
	"fmt"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/core/vk"
)

// ExtractVK resolves a VK wall post through the API, then through the post page.
// A nil post with a nil error means neither tier produced a result and the
// caller should fall through to the generic strategy.
func (e *Extractor) ExtractVK(ctx context.Context, rawURL string) (*domain.ExtractedPost, error) {
	ownerID, postID, ok := vk.ParseWallID(rawURL)
	if !ok {
		e.logger.Debug().Err(apperrors.ErrNotWallPost).Str(logKeyURL, rawURL).Msg("skipping vk extraction")

		return nil, nil //nolint:nilnil // nil post means fall through
	}

	post, err := e.vkFromAPI(ctx, ownerID, postID)
	if err == nil {
		return post, nil
	}

	e.logger.Warn().Err(err).Str(logKeyURL, rawURL).Str(logKeyTier, tierAPI).Msg("vk api extraction failed, trying post page")

	post, err = e.vkFromPage(ctx, rawURL)
	if err == nil {
		return post, nil
	}

	e.logger.Warn().Err(err).Str(logKeyURL, rawURL).Str(logKeyTier, tierPage).Msg("vk page extraction failed")

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return nil, nil //nolint:nilnil // nil post means fall through
}

func (e *Extractor) vkFromAPI(ctx context.Context, ownerID, postID int64) (*domain.ExtractedPost, error) {
	posts, err := e.vk.GetByID(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, fmt.Errorf("wall.getById %d_%d: %w", ownerID, postID, apperrors.ErrNoResults)
	}

	return e.postFromVK(posts[0]), nil
}

func (e *Extractor) postFromVK(p vk.Post) *domain.ExtractedPost {
	content := p.PlainText()

	return &domain.ExtractedPost{
		Title:       domain.TitleFromContent(content, e.limits.TitleMaxChars),
		Description: content,
		Content:     content,
		MediaList:   vkMedia(p),
		Source:      domain.SourceVK,
		PublishedAt: p.PublishedAt(),
	}
}

// vkMedia lists photos (reposts included) followed by videos.
func vkMedia(p vk.Post) []domain.MediaItem {
	items := make([]domain.MediaItem, 0)
	for _, u := range p.PhotoURLs() {
		items = append(items, domain.MediaItem{URL: u, Type: domain.MediaImage})
	}

	for _, v := range p.Videos() {
		items = append(items, domain.MediaItem{URL: v.URL(), Type: domain.MediaVideo})
	}

	return items
}

func (e *Extractor) vkFromPage(ctx context.Context, rawURL string) (*domain.ExtractedPost, error) {
	page, err := e.load(ctx, rawURL, links.WithAcceptLanguage(links.AcceptLanguageRU))
	if err != nil {
		return nil, fmt.Errorf("load vk post page: %w", err)
	}

	title := e.specificTitle(page.meta.OGTitle)
	content := links.Coalesce(page.meta.OGDescription, page.meta.Description, title)

	items := make([]domain.MediaItem, 0)

	image := page.absolute(page.meta.OGImage)
	if image != "" && e.collector.Rules().IsGarbage(image) {
		image = ""
	}

	if image != "" {
		items = append(items, domain.MediaItem{URL: image, Type: domain.MediaImage})
	}

	items = append(items, e.collector.CDNImages(page.markup)...)

	if content == "" && len(items) == 0 {
		return nil, fmt.Errorf("vk post page: %w", apperrors.ErrNoResults)
	}

	return &domain.ExtractedPost{
		Title:       title,
		Description: content,
		Content:     content,
		Image:       image,
		MediaList:   items,
		Source:      domain.SourceVK,
		PublishedAt: links.ParseDate(page.meta.PublishedTime),
	}, nil
}
