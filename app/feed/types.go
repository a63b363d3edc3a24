package feed

import (
	"net/url"
	"time"
)

// Item is a normalized feed entry. Text fields hold plain text without markup
// and are nil when the source omits them.
type Item struct {
	ID              *string
	Title           *string
	Content         *string
	Summary         *string
	URI             *url.URL
	Images          []*url.URL
	Categories      []string
	PublishDate     *time.Time
	LastUpdatedDate *time.Time
}

// GetContent returns the content, falling back to the summary when the content is empty.
func (i *Item) GetContent() *string {
	if i.Content != nil && *i.Content != "" {
		return i.Content
	}
	return i.Summary
}

// GetSummary returns the summary, falling back to the content when the summary is empty.
func (i *Item) GetSummary() *string {
	if i.Summary != nil && *i.Summary != "" {
		return i.Summary
	}
	return i.Content
}

// AuthoredItem extends a normalized item with the entry's authors.
type AuthoredItem struct {
	*Item
	Authors []string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractContent bool `yaml:"extract_content"` // run readability over item bodies
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
