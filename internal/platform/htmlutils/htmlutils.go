// Package htmlutils provides HTML processing utilities for scraped post markup.
//
// The package handles:
//   - HTML entity decoding in a single left-to-right pass
//   - Tag stripping that keeps line and paragraph breaks
//   - Detection of leftover markup in extracted text
package htmlutils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var entityRegex = regexp.MustCompile(`&(#[xX][0-9a-fA-F]+|#[0-9]+|[a-zA-Z]+);`)

var (
	breakRegex          = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphCloseRegex = regexp.MustCompile(`(?i)</p\s*>`)
	anyTagRegex         = regexp.MustCompile(`<[^>]*>`)
	tagRegex            = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(\s[^>]*)?/?>`)
)

var namedEntities = map[string]string{
	"quot": `"`,
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
	"nbsp": " ",
}

const maxCodePoint = 0x10FFFF

// DecodeEntities replaces the common named entities and numeric/hex character
// references. Every reference is decoded exactly once: "&amp;lt;" yields "&lt;".
// Unknown names and out-of-range code points are left as they are.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	return entityRegex.ReplaceAllStringFunc(s, decodeEntity)
}

func decodeEntity(ref string) string {
	body := ref[1 : len(ref)-1]

	if !strings.HasPrefix(body, "#") {
		if v, ok := namedEntities[strings.ToLower(body)]; ok {
			return v
		}

		return ref
	}

	var (
		code int64
		err  error
	)

	if len(body) > 1 && (body[1] == 'x' || body[1] == 'X') {
		code, err = strconv.ParseInt(body[2:], 16, 32)
	} else {
		code, err = strconv.ParseInt(body[1:], 10, 32)
	}

	if err != nil || code <= 0 || code > maxCodePoint || !utf8.ValidRune(rune(code)) {
		return ref
	}

	return string(rune(code))
}

// StripToPlainText converts a markup fragment to plain text.
// <br> becomes a newline and </p> a paragraph break; other tags are dropped.
// Lines are trimmed and runs of blank lines collapse into a single empty line.
func StripToPlainText(markup string) string {
	text := breakRegex.ReplaceAllString(markup, "\n")
	text = paragraphCloseRegex.ReplaceAllString(text, "\n\n")
	text = anyTagRegex.ReplaceAllString(text, "")

	return tidy(text, func(line string) string {
		return strings.TrimSpace(DecodeEntities(strings.TrimSpace(line)))
	})
}

// PlainText cleans text that is usually plain but may carry markup.
// Tags are stripped only when HasTags finds real ones, so a bare "<" or ">"
// in the text survives; entities are decoded either way.
func PlainText(text string) string {
	if HasTags(text) {
		return StripToPlainText(text)
	}

	return TidyLines(DecodeEntities(text))
}

// TidyLines trims every line of already-plain text and collapses runs of
// blank lines into a single paragraph break.
func TidyLines(text string) string {
	return tidy(text, strings.TrimSpace)
}

func tidy(text string, clean func(string) string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	pendingBreak := false

	for _, line := range lines {
		line = clean(line)
		if line == "" {
			pendingBreak = len(out) > 0
			continue
		}

		if pendingBreak {
			out = append(out, "")
			pendingBreak = false
		}

		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// StripHTMLTags flattens a fragment to a single line: tags become spaces,
// entities are decoded and whitespace runs collapse.
func StripHTMLTags(text string) string {
	result := tagRegex.ReplaceAllString(text, " ")
	result = DecodeEntities(result)

	return strings.Join(strings.Fields(result), " ")
}

// HasTags reports whether text still contains something that looks like an HTML tag.
func HasTags(text string) bool {
	return tagRegex.MatchString(text)
}
