package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

const (
	DefaultBaseURL = "https://api.vk.ru/method"
	DefaultVersion = "5.199"

	methodGetByID = "wall.getById"
	methodWallGet = "wall.get"

	acceptJSON = "application/json"
)

// Fetcher performs rate-limited GET requests.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...links.RequestOption) (*links.Page, error)
}

type Config struct {
	BaseURL     string
	Version     string
	AccessToken string
}

type Client struct {
	fetcher Fetcher
	cfg     Config
}

func NewClient(fetcher Fetcher, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	return &Client{fetcher: fetcher, cfg: cfg}
}

// WallQuery selects a wall for wall.get. OwnerID takes precedence over Domain when HasOwner is set.
type WallQuery struct {
	OwnerID  int64
	HasOwner bool
	Domain   string
	Count    int
	Offset   int
}

type WallResult struct {
	Count int    `json:"count"`
	Items []Post `json:"items"`
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// GetByID loads a single wall post.
func (c *Client) GetByID(ctx context.Context, ownerID, postID int64) ([]Post, error) {
	params := url.Values{}
	params.Set("posts", fmt.Sprintf("%d_%d", ownerID, postID))
	params.Set("extended", "1")

	raw, err := c.call(ctx, methodGetByID, params)
	if err != nil {
		return nil, err
	}

	result, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", methodGetByID, err)
	}

	return result.Items, nil
}

// WallGet pages through a community or user wall.
func (c *Client) WallGet(ctx context.Context, q WallQuery) (*WallResult, error) {
	params := url.Values{}

	switch {
	case q.HasOwner:
		params.Set("owner_id", strconv.FormatInt(q.OwnerID, 10))
	case q.Domain != "":
		params.Set("domain", q.Domain)
	default:
		return nil, fmt.Errorf("%w: wall owner or domain required", apperrors.ErrInvalidInput)
	}

	params.Set("count", strconv.Itoa(q.Count))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("extended", "1")

	raw, err := c.call(ctx, methodWallGet, params)
	if err != nil {
		return nil, err
	}

	result, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", methodWallGet, err)
	}

	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	params.Set("v", c.cfg.Version)

	if c.cfg.AccessToken != "" {
		params.Set("access_token", c.cfg.AccessToken)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, method, params.Encode())

	page, err := c.fetcher.Fetch(ctx, endpoint, links.WithAccept(acceptJSON))
	if err != nil {
		observability.VKAPIRequests.WithLabelValues(method, observability.StatusError).Inc()
		return nil, fmt.Errorf("%s request: %w", method, redact(err))
	}

	var env envelope
	if err := json.Unmarshal(page.Body, &env); err != nil {
		observability.VKAPIRequests.WithLabelValues(method, observability.StatusError).Inc()
		return nil, fmt.Errorf("decode %s envelope: %w", method, err)
	}

	if env.Error != nil {
		observability.VKAPIRequests.WithLabelValues(method, observability.StatusError).Inc()
		return nil, fmt.Errorf("%s: %w", method, env.Error)
	}

	if len(env.Response) == 0 || bytes.Equal(env.Response, []byte("null")) {
		observability.VKAPIRequests.WithLabelValues(method, observability.StatusError).Inc()
		return nil, fmt.Errorf("%s: %w", method, apperrors.ErrEmptyResponse)
	}

	observability.VKAPIRequests.WithLabelValues(method, observability.StatusSuccess).Inc()

	return env.Response, nil
}

// decodeItems accepts both the {count, items} object and a bare item array.
func decodeItems(raw json.RawMessage) (*WallResult, error) {
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Post
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}

		return &WallResult{Count: len(items), Items: items}, nil
	}

	var result WallResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// redact drops the request URL, which carries the access token, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}

	return err
}
