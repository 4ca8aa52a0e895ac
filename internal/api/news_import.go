package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

const (
	bearerPrefix = "Bearer "
	logKeySlug   = "slug"
	logKeyCount  = "count"
)

type importRequest struct {
	Posts []domain.ImportPost `json:"posts"`
}

type importResponse struct {
	OK      bool                  `json:"ok"`
	Count   int                   `json:"count"`
	Results []domain.ImportResult `json:"results"`
}

func (h *Handler) handleNewsImport(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if h.store == nil || h.opts.AdminToken == "" {
		writeError(w, http.StatusServiceUnavailable, apperrors.ErrStorageDisabled.Error())
		return
	}

	if err := h.authorize(r); err != nil {
		status := http.StatusForbidden
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}

		logger.Warn().Err(err).Str(logKeyClient, clientIP(r)).Msg("news import rejected")
		writeError(w, status, http.StatusText(status))

		return
	}

	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if details := validateImport(req.Posts); len(details) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid input", details...)
		return
	}

	results := make([]domain.ImportResult, 0, len(req.Posts))

	for _, post := range req.Posts {
		post.ImageURL = post.CoverImage()

		action, err := h.store.UpsertPost(r.Context(), post)
		if err != nil {
			logger.Error().Err(err).Str(logKeySlug, post.Slug).Msg("news import failed")
			writeError(w, http.StatusInternalServerError, err.Error())

			return
		}

		observability.ImportsTotal.WithLabelValues(action).Inc()

		results = append(results, domain.ImportResult{Slug: post.Slug, Action: action, ImageURL: post.ImageURL})
	}

	logger.Info().Int(logKeyCount, len(results)).Msg("news imported")

	writeJSON(w, http.StatusOK, importResponse{OK: true, Count: len(results), Results: results})
}

func (h *Handler) authorize(r *http.Request) error {
	auth := strings.TrimSpace(r.Header.Get(headerAuthorize))
	if !strings.HasPrefix(auth, bearerPrefix) {
		return apperrors.ErrUnauthorized
	}

	token := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	if token == "" {
		return apperrors.ErrUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.AdminToken)) != 1 {
		return apperrors.ErrForbidden
	}

	return nil
}

func validateImport(posts []domain.ImportPost) []string {
	switch {
	case len(posts) == 0:
		return []string{"posts: at least one post is required"}
	case len(posts) > domain.ImportBatchMaxPosts:
		return []string{fmt.Sprintf("posts: at most %d posts per request", domain.ImportBatchMaxPosts)}
	}

	var details []string

	for i, post := range posts {
		if err := post.Validate(); err != nil {
			details = append(details, errorDetails(fmt.Sprintf("posts[%d]: ", i), err)...)
		}
	}

	return details
}
