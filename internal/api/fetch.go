package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/postmeta/internal/extract"
)

type fetchRequest struct {
	URL string `json:"url"`
}

func (h *Handler) handleFetchMetadata(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req fetchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	post, err := h.extractor.Run(r.Context(), req.URL)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str(logKeyURL, req.URL).Msg("fetch metadata failed")
		}

		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) handleVKBatch(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req extract.BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.URL = strings.TrimSpace(req.URL)

	result, err := h.extractor.RunVKBatch(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str(logKeyURL, req.URL).Msg("vk batch fetch failed")
		}

		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, result)
}
