package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lueurxax/postmeta/internal/core/vk"
)

// VKClient is a thread-safe in-memory implementation of ports.VKClient.
type VKClient struct {
	mu    sync.RWMutex
	posts map[string]vk.Post
	walls map[int64][]vk.Post

	// GetByIDFn allows overriding GetByID behavior.
	GetByIDFn func(ctx context.Context, ownerID, postID int64) ([]vk.Post, error)

	// WallGetFn allows overriding WallGet behavior.
	WallGetFn func(ctx context.Context, q vk.WallQuery) (*vk.WallResult, error)
}

// NewVKClient creates an empty mock VK client.
func NewVKClient() *VKClient {
	return &VKClient{
		posts: make(map[string]vk.Post),
		walls: make(map[int64][]vk.Post),
	}
}

// AddPost registers a post under its owner and id.
func (c *VKClient) AddPost(p vk.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts[postKey(p.OwnerID, p.ID)] = p
	c.walls[p.OwnerID] = append(c.walls[p.OwnerID], p)
}

// GetByID returns the registered post or ErrVKPostNotFound.
func (c *VKClient) GetByID(ctx context.Context, ownerID, postID int64) ([]vk.Post, error) {
	if c.GetByIDFn != nil {
		return c.GetByIDFn(ctx, ownerID, postID)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.posts[postKey(ownerID, postID)]
	if !ok {
		return nil, ErrVKPostNotFound
	}

	return []vk.Post{p}, nil
}

// WallGet pages through posts registered for q.OwnerID.
func (c *VKClient) WallGet(ctx context.Context, q vk.WallQuery) (*vk.WallResult, error) {
	if c.WallGetFn != nil {
		return c.WallGetFn(ctx, q)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	wall := c.walls[q.OwnerID]
	result := &vk.WallResult{Count: len(wall), Items: []vk.Post{}}

	for i := q.Offset; i < len(wall) && i < q.Offset+q.Count; i++ {
		result.Items = append(result.Items, wall[i])
	}

	return result, nil
}

func postKey(ownerID, postID int64) string {
	return fmt.Sprintf("%d_%d", ownerID, postID)
}
