package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/postmeta/internal/core/domain"
)

// PostStore is a thread-safe in-memory implementation of ports.PostStore.
// Posts are keyed like the database: (source, sourceId) when sourceId is set, else slug.
type PostStore struct {
	mu    sync.RWMutex
	posts map[string]domain.ImportPost

	// UpsertPostFn allows overriding UpsertPost behavior.
	UpsertPostFn func(ctx context.Context, post domain.ImportPost) (string, error)
}

// NewPostStore creates an empty mock store.
func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]domain.ImportPost)}
}

// UpsertPost stores post and reports whether it was new.
func (s *PostStore) UpsertPost(ctx context.Context, post domain.ImportPost) (string, error) {
	if s.UpsertPostFn != nil {
		return s.UpsertPostFn(ctx, post)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := "slug:" + post.Slug
	if post.SourceID != "" {
		key = "source:" + post.Source + "/" + post.SourceID
	}

	_, exists := s.posts[key]
	s.posts[key] = post

	if exists {
		return domain.ImportUpdated, nil
	}

	return domain.ImportInserted, nil
}

// Len returns the number of stored posts.
func (s *PostStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.posts)
}
