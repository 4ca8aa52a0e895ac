// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/core/vk"
)

// PageFetcher performs rate-limited HTTP GETs.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...links.RequestOption) (*links.Page, error)
}

// VKClient is the subset of the VK API used for extraction.
type VKClient interface {
	GetByID(ctx context.Context, ownerID, postID int64) ([]vk.Post, error)
	WallGet(ctx context.Context, q vk.WallQuery) (*vk.WallResult, error)
}

// PostStore persists imported news posts.
type PostStore interface {
	// UpsertPost inserts or updates a post and reports domain.ImportInserted or domain.ImportUpdated.
	UpsertPost(ctx context.Context, post domain.ImportPost) (string, error)
}
