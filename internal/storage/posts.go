package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/ports"
)

var _ ports.PostStore = (*DB)(nil)

const (
	selectPostBySource = `
		SELECT id FROM posts
		WHERE source IS NOT DISTINCT FROM $1 AND source_id = $2
		FOR UPDATE`
	selectPostBySlug = `
		SELECT id FROM posts
		WHERE slug = $1
		FOR UPDATE`
)

// postLookup picks the identity of an imported post: its upstream
// (source, source_id) pair when known, otherwise its slug.
func postLookup(post domain.ImportPost) (string, []any) {
	if post.SourceID != "" {
		return selectPostBySource, []any{toText(post.Source), post.SourceID}
	}

	return selectPostBySlug, []any{post.Slug}
}

// UpsertPost updates the post matching post's identity or inserts a new one.
// It returns domain.ImportInserted or domain.ImportUpdated.
func (db *DB) UpsertPost(ctx context.Context, post domain.ImportPost) (string, error) {
	action := domain.ImportInserted

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		query, args := postLookup(post)

		var id uuid.UUID

		err := tx.QueryRow(ctx, query, args...).Scan(&id)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return insertPost(ctx, tx, post)
		case err != nil:
			return fmt.Errorf("find post: %w", err)
		}

		action = domain.ImportUpdated

		return updatePost(ctx, tx, id, post)
	})
	if err != nil {
		return "", fmt.Errorf("upsert post %q: %w", post.Slug, err)
	}

	return action, nil
}

func insertPost(ctx context.Context, tx pgx.Tx, post domain.ImportPost) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO posts (id, title, slug, category, content, excerpt, image_url, source, source_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
	`, uuid.New(),
		SanitizeUTF8(post.Title),
		post.Slug,
		post.Category,
		SanitizeUTF8(post.Content),
		toText(post.Excerpt),
		toText(post.ImageURL),
		toText(post.Source),
		toText(post.SourceID),
		toTimestamptzPtr(post.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

func updatePost(ctx context.Context, tx pgx.Tx, id uuid.UUID, post domain.ImportPost) error {
	_, err := tx.Exec(ctx, `
		UPDATE posts
		SET title = $2,
			slug = $3,
			category = $4,
			content = $5,
			excerpt = $6,
			image_url = $7,
			source = $8,
			source_id = $9,
			published_at = COALESCE($10, published_at),
			updated_at = now()
		WHERE id = $1
	`, id,
		SanitizeUTF8(post.Title),
		post.Slug,
		post.Category,
		SanitizeUTF8(post.Content),
		toText(post.Excerpt),
		toText(post.ImageURL),
		toText(post.Source),
		toText(post.SourceID),
		toTimestamptzPtr(post.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}
