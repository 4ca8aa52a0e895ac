package links

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
)

const (
	wwwPrefix      = "www."
	schemeHTTP     = "http"
	schemeHTTPS    = "https"
	telegramHost   = "t.me"
	telegramAlt    = "telegram.me"
	vkHostFragment = "vk.com"
	vkAltHost      = "vk.ru"
	embedQuery     = "embed=1"
	singleQueryKey = "single"
	privatePrefix  = "c"
	previewPrefix  = "s"
)

// ValidateURL parses raw and requires an absolute http(s) URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", apperrors.ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != schemeHTTP && scheme != schemeHTTPS {
		return nil, fmt.Errorf("%w: unsupported scheme %q", apperrors.ErrInvalidURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", apperrors.ErrInvalidURL)
	}

	return u, nil
}

// Classify picks the extraction strategy for a URL from its host.
func Classify(rawURL string) domain.Source {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return domain.SourceWeb
	}

	host := normalizeDomain(u.Hostname())

	switch {
	case strings.Contains(host, vkHostFragment), host == vkAltHost, strings.HasSuffix(host, "."+vkAltHost):
		return domain.SourceVK
	case host == telegramHost, strings.HasSuffix(host, telegramAlt):
		return domain.SourceTelegram
	default:
		return domain.SourceWeb
	}
}

// TelegramEmbedURL rewrites a single-message Telegram link (t.me/<channel>/<id>,
// t.me/s/<channel>/<id>) to its embeddable widget form. Private links
// (t.me/c/<id>/<msg>) have no public widget; they and other links lose the
// "single" marker and are otherwise returned unchanged.
func TelegramEmbedURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if n := len(segments); n >= 2 && segments[0] != privatePrefix && isNumeric(segments[n-1]) {
		channel := segments[n-2]
		if channel != previewPrefix {
			return fmt.Sprintf("%s://%s/%s/%s?%s", schemeHTTPS, telegramHost, channel, segments[n-1], embedQuery)
		}
	}

	q := u.Query()
	if q.Has(singleQueryKey) {
		q.Del(singleQueryKey)
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	_, err := strconv.ParseUint(s, 10, 64)

	return err == nil
}

func normalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, wwwPrefix)

	return host
}
