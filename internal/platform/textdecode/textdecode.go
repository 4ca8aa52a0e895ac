// Package textdecode turns fetched response bytes into text.
//
// UTF-8 is preferred. When the UTF-8 decode looks corrupted the same bytes are
// decoded as Windows-1251 and the candidate with fewer invalid markers wins.
// The resolver is a heuristic: documents in other legacy encodings may still
// come out garbled, but decoding never fails.
package textdecode

import (
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	utf8Name      = "utf-8"
	prescanWindow = 1024
)

var metaCharsetRegex = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_:.-]+)`)

// Document is a decoded response body.
type Document struct {
	Text        string
	ContentType string
	Charset     string
}

// Resolve decodes body using the charset hint from contentType when it names a
// non-UTF-8 encoding, otherwise it applies the UTF-8 / Windows-1251 heuristic.
func Resolve(body []byte, contentType string) string {
	return Decode(body, contentType).Text
}

// Decode is Resolve that also reports which charset won.
func Decode(body []byte, contentType string) Document {
	doc := Document{ContentType: contentType}

	if enc, name, ok := declaredEncoding(body, contentType); ok {
		if text, err := enc.NewDecoder().Bytes(body); err == nil {
			doc.Text = string(text)
			doc.Charset = name

			return doc
		}
	}

	utf8Text := decodeUTF8(body)
	doc.Text = utf8Text
	doc.Charset = utf8Name

	utf8Markers := countInvalid(utf8Text)
	if utf8Markers == 0 {
		return doc
	}

	legacy, err := charmap.Windows1251.NewDecoder().Bytes(body)
	if err != nil {
		return doc
	}

	legacyText := string(legacy)
	if countInvalid(legacyText) < utf8Markers {
		doc.Text = legacyText
		doc.Charset = "windows-1251"
	}

	return doc
}

// declaredEncoding returns an explicitly declared non-UTF-8 encoding from the
// Content-Type header. A <meta> declaration near the top of the document is
// only consulted when body is not valid UTF-8: transcoded pages often keep
// their original declaration.
func declaredEncoding(body []byte, contentType string) (encoding.Encoding, string, bool) {
	label := headerCharset(contentType)
	if label == "" && !utf8.Valid(body) {
		label = metaCharset(body)
	}

	if label == "" {
		return nil, "", false
	}

	enc, name := charset.Lookup(label)
	if enc == nil || name == utf8Name {
		return nil, "", false
	}

	return enc, name, true
}

func headerCharset(contentType string) string {
	if contentType == "" {
		return ""
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(params["charset"])
}

func metaCharset(body []byte) string {
	head := body
	if len(head) > prescanWindow {
		head = head[:prescanWindow]
	}

	m := metaCharsetRegex.FindSubmatch(head)
	if m == nil {
		return ""
	}

	return string(m[1])
}

// decodeUTF8 replaces every byte that is not part of a valid sequence with its
// own U+FFFD, so the marker count grows with the number of stray bytes.
func decodeUTF8(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			body = body[1:]

			continue
		}

		sb.Write(body[:size])
		body = body[size:]
	}

	return sb.String()
}

// countInvalid counts replacement characters and C0 controls other than tab, LF and CR.
func countInvalid(s string) int {
	n := 0

	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			n++
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			n++
		}
	}

	return n
}
