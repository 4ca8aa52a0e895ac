package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	//nolint:errcheck // client may have gone away, nothing left to report to
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// decodeBody reads a single JSON object from the request body.
func decodeBody(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", apperrors.ErrInvalidInput, tooLarge.Limit)
		}

		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", apperrors.ErrInvalidInput)
		}

		return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	return nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidURL), errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorDetails splits a joined error into one message per line.
func errorDetails(prefix string, err error) []string {
	lines := strings.Split(err.Error(), "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, prefix+line)
		}
	}

	return out
}
