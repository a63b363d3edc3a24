package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lysyi3m/feed-reader/app/syndication"
)

var (
	ErrNonTextContent  = errors.New("item content is not text")
	ErrInvalidImageURI = errors.New("image extension is not an absolute URI")
)

// Normalizer maps a parsed entry to an output record. Implementations that only
// adjust a few fields usually delegate to a DefaultNormalizer.
type Normalizer[T any] interface {
	Normalize(feed *syndication.Feed, item *syndication.Item) (T, error)
}

type NormalizerFunc[T any] func(feed *syndication.Feed, item *syndication.Item) (T, error)

func (f NormalizerFunc[T]) Normalize(feed *syndication.Feed, item *syndication.Item) (T, error) {
	return f(feed, item)
}

var _ Normalizer[*Item] = (*DefaultNormalizer)(nil)

// DefaultNormalizer produces an Item with plain-text title, content and summary,
// a canonical URI, image URIs from "image" extension elements, and a last
// updated date that falls back to the publish date.
type DefaultNormalizer struct {
	text *TextNormalizer
}

func NewDefaultNormalizer(text *TextNormalizer) *DefaultNormalizer {
	if text == nil {
		text = NewTextNormalizer(DefaultMaxDecodeIterations)
	}
	return &DefaultNormalizer{text: text}
}

func (n *DefaultNormalizer) Normalize(feed *syndication.Feed, item *syndication.Item) (*Item, error) {
	normalized := &Item{
		ID:              n.normalizeID(item.ID),
		Title:           n.text.Run(item.Title),
		Summary:         n.text.Run(item.Summary),
		URI:             n.resolveURI(feed, item),
		PublishDate:     item.Published,
		LastUpdatedDate: item.Published,
		Categories:      make([]string, 0, len(item.Categories)),
	}

	if item.Content != nil {
		if !item.Content.IsText() {
			return nil, fmt.Errorf("%w: out-of-line content at %s", ErrNonTextContent, item.Content.Src)
		}
		normalized.Content = n.text.Run(&item.Content.Text)
	}

	if item.Updated != nil && !item.Updated.IsZero() {
		normalized.LastUpdatedDate = item.Updated
	}

	images, err := n.extractImages(item)
	if err != nil {
		return nil, err
	}
	normalized.Images = images

	normalized.Categories = append(normalized.Categories, item.Categories...)

	return normalized, nil
}

func (n *DefaultNormalizer) normalizeID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

// resolveURI prefers the alternate link (an untyped link counts as alternate)
// and falls back to the entry ID when that is an absolute URI.
func (n *DefaultNormalizer) resolveURI(feed *syndication.Feed, item *syndication.Item) *url.URL {
	for _, link := range item.Links {
		if link.Rel == "" || strings.EqualFold(link.Rel, "alternate") {
			return n.resolveLink(feed, link.Href)
		}
	}
	return parseAbsoluteURI(item.ID)
}

func (n *DefaultNormalizer) resolveLink(feed *syndication.Feed, href string) *url.URL {
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	if link.IsAbs() || feed == nil {
		return link
	}
	if base := parseAbsoluteURI(feed.Link); base != nil {
		return base.ResolveReference(link)
	}
	return link
}

func (n *DefaultNormalizer) extractImages(item *syndication.Item) ([]*url.URL, error) {
	images := make([]*url.URL, 0)
	for _, extension := range item.Extensions {
		if extension.Name != "image" {
			continue
		}

		value := strings.TrimSpace(extension.Value)
		image, err := url.Parse(value)
		if err != nil || !image.IsAbs() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidImageURI, value)
		}
		images = append(images, image)
	}
	return images, nil
}

// parseAbsoluteURI accepts only URIs with a scheme and a host. Opaque forms
// such as tag: and urn: identifiers are rejected.
func parseAbsoluteURI(value string) *url.URL {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	return parsed
}

var _ Normalizer[*AuthoredItem] = (*AuthorNormalizer)(nil)

// AuthorNormalizer adds author names (or emails when the name is missing) to
// whatever the base normalizer produces.
type AuthorNormalizer struct {
	base Normalizer[*Item]
}

func NewAuthorNormalizer(base Normalizer[*Item]) *AuthorNormalizer {
	if base == nil {
		base = NewDefaultNormalizer(nil)
	}
	return &AuthorNormalizer{base: base}
}

func (n *AuthorNormalizer) Normalize(feed *syndication.Feed, item *syndication.Item) (*AuthoredItem, error) {
	normalized, err := n.base.Normalize(feed, item)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(item.Authors))
	for _, author := range item.Authors {
		name := strings.TrimSpace(author.Name)
		if name == "" {
			name = strings.TrimSpace(author.Email)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	return &AuthoredItem{Item: normalized, Authors: authors}, nil
}
