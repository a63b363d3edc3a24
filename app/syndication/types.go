package syndication

import "time"

type FeedType string

const (
	FeedTypeAtom FeedType = "atom"
	FeedTypeRSS  FeedType = "rss"
)

// Feed is a parsed RSS or Atom document with its entries in document order.
type Feed struct {
	Type        FeedType
	Title       string
	Link        string
	Description string
	Language    string
	Items       []*Item
}

// Item is a single entry as the source document describes it. Text fields are
// nil when the element is missing or empty.
type Item struct {
	ID         string
	Title      *string
	Summary    *string
	Content    *Content
	Links      []Link
	Published  *time.Time
	Updated    *time.Time
	Authors    []Person
	Categories []string
	Extensions []Extension
}

// Content is the rich body of an entry. Src is set for out-of-line content,
// which carries no text.
type Content struct {
	Type string
	Text string
	Src  string
}

func (c *Content) IsText() bool {
	return c != nil && c.Src == ""
}

type Link struct {
	Href string
	Rel  string
	Type string
}

// Extension is an element outside the base RSS/Atom schema, e.g. media:image.
type Extension struct {
	Prefix string
	Name   string
	Value  string
}

type Person struct {
	Name  string
	Email string
}
