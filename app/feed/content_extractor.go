package feed

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"codeberg.org/readeck/go-readability"
	"github.com/lysyi3m/feed-reader/app/syndication"
)

var markupPattern = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|article|section|font|strong|em|b|i|pre|blockquote)[\s>/]`)

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}

var _ Normalizer[*Item] = (*ArticleNormalizer)(nil)

// ArticleNormalizer runs readability over HTML item bodies before handing a
// copy of the entry to the base normalizer.
type ArticleNormalizer struct {
	base      Normalizer[*Item]
	extractor *ContentExtractor
}

func NewArticleNormalizer(base Normalizer[*Item]) *ArticleNormalizer {
	if base == nil {
		base = NewDefaultNormalizer(nil)
	}
	return &ArticleNormalizer{
		base:      base,
		extractor: NewContentExtractor(),
	}
}

func (n *ArticleNormalizer) Normalize(feed *syndication.Feed, item *syndication.Item) (*Item, error) {
	extracted := *item

	if item.Content.IsText() && markupPattern.MatchString(item.Content.Text) {
		content := *item.Content
		content.Text = n.extract(content.Text)
		extracted.Content = &content
	}

	if item.Summary != nil && markupPattern.MatchString(*item.Summary) {
		summary := n.extract(*item.Summary)
		extracted.Summary = &summary
	}

	return n.base.Normalize(feed, &extracted)
}

// extract keeps the original markup when readability finds nothing.
func (n *ArticleNormalizer) extract(markup string) string {
	content, err := n.extractor.Run([]byte(markup))
	if err != nil {
		slog.Debug("Article extraction skipped", "error", err)
		return markup
	}
	return content
}
