package feed

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const DefaultMaxDecodeIterations = 5

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern  = regexp.MustCompile(`[\s\x{85}\p{Z}]{2,}`)
)

// TextNormalizer turns feed text into plain text: entities decoded, markup and
// control characters removed, whitespace collapsed, NFC composed and trimmed.
type TextNormalizer struct {
	maxDecodeIterations int
}

func NewTextNormalizer(maxDecodeIterations int) *TextNormalizer {
	if maxDecodeIterations <= 0 {
		maxDecodeIterations = DefaultMaxDecodeIterations
	}
	return &TextNormalizer{maxDecodeIterations: maxDecodeIterations}
}

// Run normalizes an optional value. nil stays nil, and so does a value whose
// entity decoding does not settle within the iteration limit.
func (n *TextNormalizer) Run(value *string) *string {
	if value == nil {
		return nil
	}
	normalized, ok := n.Normalize(*value)
	if !ok {
		return nil
	}
	return &normalized
}

// Normalize reports ok=false when the value is still changing after
// maxDecodeIterations decode passes.
func (n *TextNormalizer) Normalize(value string) (string, bool) {
	if value == "" {
		return value, true
	}

	value, ok := n.decode(value)
	if !ok {
		return "", false
	}
	if value == "" {
		return value, true
	}

	value = htmlTagPattern.ReplaceAllString(value, " ")
	value = controlCharPattern.ReplaceAllString(value, " ")
	value = whitespacePattern.ReplaceAllString(value, " ")

	return strings.TrimSpace(norm.NFC.String(value)), true
}

// decode unescapes repeatedly so double and triple encoded entities
// (&amp;amp; -> &amp; -> &) end up as their literal characters.
func (n *TextNormalizer) decode(value string) (string, bool) {
	iterations := 0
	decoded := html.UnescapeString(value)
	for decoded != value && iterations < n.maxDecodeIterations {
		iterations++
		value = decoded
		decoded = html.UnescapeString(value)
	}

	if iterations >= n.maxDecodeIterations {
		return "", false
	}
	return decoded, true
}
