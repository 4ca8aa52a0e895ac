package extract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/vk"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

var (
	wallOwnerRe    = regexp.MustCompile(`wall(-?\d+)`)
	communityIDRe  = regexp.MustCompile(`^(?:public|club)(\d+)$`)
	screenNameRe   = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
	reservedVKPath = map[string]bool{"feed": true, "im": true, "search": true, "video": true, "wall": true}
)

// BatchRequest addresses a page of a VK wall.
type BatchRequest struct {
	URL    string `json:"url"`
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
}

// BatchItem is one wall post prepared for import.
type BatchItem struct {
	SourceID    string             `json:"source_id"`
	SourceURL   string             `json:"source_url"`
	PublishedAt time.Time          `json:"published_at"`
	Title       string             `json:"title"`
	Excerpt     string             `json:"excerpt"`
	Content     string             `json:"content"`
	ImageURL    *string            `json:"image_url"`
	MediaList   []domain.MediaItem `json:"mediaList"`
	Source      domain.Source      `json:"source"`
}

type BatchResult struct {
	TotalCount int         `json:"totalCount"`
	Items      []BatchItem `json:"items"`
}

// RunVKBatch fetches a page of wall posts and maps each into a BatchItem.
func (p *Pipeline) RunVKBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	query, err := p.resolveWall(req.URL)
	if err != nil {
		return nil, err
	}

	query.Count = clampCount(req.Count, p.opts.VKBatchMaxCount)

	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must be non-negative", apperrors.ErrInvalidInput)
	}

	query.Offset = req.Offset

	p.logger.Info().
		Str(logKeyURL, req.URL).
		Int64(logKeyOwner, query.OwnerID).
		Int(logKeyCount, query.Count).
		Int(logKeyOffset, query.Offset).
		Msg("fetching vk wall batch")

	wall, err := p.extractor.vk.WallGet(ctx, query)
	if err != nil {
		observability.ExtractionsTotal.WithLabelValues(string(domain.SourceVK), observability.StatusError).Inc()

		return nil, fmt.Errorf("wall.get: %w", err)
	}

	now := time.Now().UTC()

	items := make([]BatchItem, 0, len(wall.Items))
	for _, post := range wall.Items {
		items = append(items, p.batchItem(post, now))
	}

	observability.BatchItemsReturned.Observe(float64(len(items)))

	return &BatchResult{TotalCount: wall.Count, Items: items}, nil
}

func (p *Pipeline) batchItem(post vk.Post, now time.Time) BatchItem {
	text := post.PlainText()
	sourceURL := post.URL()

	title := domain.TitleFromContent(text, p.opts.Limits.TitleMaxChars)
	if title == "" {
		title = batchDefaultTitle
	}

	var cover *string
	if photos := post.PhotoURLs(); len(photos) > 0 {
		cover = &photos[0]
	} else {
		for _, v := range post.Videos() {
			if thumb := v.Thumbnail(); thumb != "" {
				cover = &thumb
				break
			}
		}
	}

	mediaList := vkMedia(post)
	if len(mediaList) > p.opts.Limits.MediaMaxItems {
		mediaList = mediaList[:p.opts.Limits.MediaMaxItems]
	}

	publishedAt := now
	if t := post.PublishedAt(); t != nil {
		publishedAt = *t
	}

	return BatchItem{
		SourceID:    strconv.FormatInt(post.ID, 10),
		SourceURL:   sourceURL,
		PublishedAt: publishedAt,
		Title:       title,
		Excerpt:     domain.Truncate(text, batchExcerptMaxChars),
		Content:     strings.TrimSpace(text + "\n\n" + batchSourcePrefix + sourceURL),
		ImageURL:    cover,
		MediaList:   mediaList,
		Source:      domain.SourceVK,
	}
}

// resolveWall maps a wall or community URL onto wall.get parameters.
func (p *Pipeline) resolveWall(rawURL string) (vk.WallQuery, error) {
	rawURL = strings.TrimSpace(rawURL)

	if m := wallOwnerRe.FindStringSubmatch(rawURL); m != nil {
		owner, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return vk.WallQuery{OwnerID: owner, HasOwner: true}, nil
		}
	}

	if name := screenName(rawURL); name != "" {
		if m := communityIDRe.FindStringSubmatch(name); m != nil {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err == nil {
				return vk.WallQuery{OwnerID: -id, HasOwner: true}, nil
			}
		}

		return vk.WallQuery{Domain: name}, nil
	}

	if p.opts.VKDefaultDomain != "" {
		return vk.WallQuery{Domain: p.opts.VKDefaultDomain}, nil
	}

	return vk.WallQuery{}, fmt.Errorf("%w: no vk wall in %q", apperrors.ErrInvalidInput, rawURL)
}

// screenName returns the first path segment of a VK URL when it looks like a community name.
func screenName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.Contains(strings.ToLower(u.Hostname()), "vk.") {
		return ""
	}

	segment, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if segment == "" || reservedVKPath[strings.ToLower(segment)] || !screenNameRe.MatchString(segment) {
		return ""
	}

	return segment
}

func clampCount(count, maxCount int) int {
	switch {
	case count == 0:
		count = DefaultBatchCount
	case count < 1:
		count = 1
	}

	if count > maxCount {
		count = maxCount
	}

	return count
}
