package mocks

import "errors"

var (
	// ErrPageNotFound is returned for URLs with no registered page.
	ErrPageNotFound = errors.New("page not found")

	// ErrVKPostNotFound is returned when no VK post is registered for an id.
	ErrVKPostNotFound = errors.New("vk post not found")
)
