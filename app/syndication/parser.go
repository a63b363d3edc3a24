package syndication

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
)

var (
	ErrDTDProhibited   = errors.New("DTD declarations are not allowed in feed documents")
	ErrUnsupportedFeed = errors.New("unsupported feed format")
)

type Parser struct {
	atomParser *atom.Parser
	rssParser  *rss.Parser
}

func NewParser() *Parser {
	return &Parser{
		atomParser: &atom.Parser{},
		rssParser:  &rss.Parser{},
	}
}

func (p *Parser) Run(data []byte) (*Feed, error) {
	if hasDTD(data) {
		return nil, ErrDTDProhibited
	}

	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeAtom:
		feed, err := p.atomParser.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse atom feed: %w", err)
		}
		extensions, err := scanExtensions(data, FeedTypeAtom)
		if err != nil {
			return nil, err
		}
		return p.fromAtom(feed, extensions), nil
	case gofeed.FeedTypeRSS:
		feed, err := p.rssParser.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse rss feed: %w", err)
		}
		extensions, err := scanExtensions(data, FeedTypeRSS)
		if err != nil {
			return nil, err
		}
		return p.fromRSS(feed, extensions), nil
	default:
		return nil, ErrUnsupportedFeed
	}
}

func (p *Parser) fromAtom(feed *atom.Feed, extensions [][]Extension) *Feed {
	result := &Feed{
		Type:        FeedTypeAtom,
		Title:       feed.Title,
		Link:        alternateHref(feed.Links),
		Description: feed.Subtitle,
		Language:    feed.Language,
		Items:       make([]*Item, 0, len(feed.Entries)),
	}

	scanned := len(extensions) == len(feed.Entries)
	if !scanned {
		slog.Warn("Extension scan does not match parsed entries, falling back to grouped extensions",
			"scanned", len(extensions), "entries", len(feed.Entries))
	}

	for i, entry := range feed.Entries {
		item := &Item{
			ID:        entry.ID,
			Title:     optional(entry.Title),
			Summary:   optional(entry.Summary),
			Published: entry.PublishedParsed,
			Updated:   entry.UpdatedParsed,
		}
		if scanned {
			item.Extensions = extensions[i]
		} else {
			item.Extensions = flattenExtensions(entry.Extensions)
		}

		if entry.Content != nil && (entry.Content.Value != "" || entry.Content.Src != "") {
			item.Content = &Content{
				Type: entry.Content.Type,
				Text: entry.Content.Value,
				Src:  entry.Content.Src,
			}
		}

		for _, link := range entry.Links {
			if link == nil || link.Href == "" {
				continue
			}
			item.Links = append(item.Links, Link{Href: link.Href, Rel: link.Rel, Type: link.Type})
		}

		for _, author := range entry.Authors {
			if author != nil {
				item.Authors = append(item.Authors, Person{Name: author.Name, Email: author.Email})
			}
		}

		for _, category := range entry.Categories {
			if category != nil {
				item.Categories = append(item.Categories, category.Term)
			}
		}

		result.Items = append(result.Items, item)
	}

	return result
}

func (p *Parser) fromRSS(feed *rss.Feed, extensions [][]Extension) *Feed {
	result := &Feed{
		Type:        FeedTypeRSS,
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
		Items:       make([]*Item, 0, len(feed.Items)),
	}

	scanned := len(extensions) == len(feed.Items)
	if !scanned {
		slog.Warn("Extension scan does not match parsed items, falling back to grouped extensions",
			"scanned", len(extensions), "items", len(feed.Items))
	}

	for i, rssItem := range feed.Items {
		item := &Item{
			Title:     optional(rssItem.Title),
			Summary:   optional(rssItem.Description),
			Published: rssItem.PubDateParsed,
		}
		if scanned {
			item.Extensions = extensions[i]
		} else {
			item.Extensions = flattenExtensions(rssItem.Extensions)
		}

		if rssItem.GUID != nil {
			item.ID = rssItem.GUID.Value
		}

		if rssItem.Content != "" {
			item.Content = &Content{Type: "html", Text: rssItem.Content}
		}

		// <link> is the alternate representation, enclosures are their own relation
		if rssItem.Link != "" {
			item.Links = append(item.Links, Link{Href: rssItem.Link, Rel: "alternate"})
		}
		if rssItem.Enclosure != nil && rssItem.Enclosure.URL != "" {
			item.Links = append(item.Links, Link{Href: rssItem.Enclosure.URL, Rel: "enclosure", Type: rssItem.Enclosure.Type})
		}

		if item.Published == nil && rssItem.DublinCoreExt != nil && len(rssItem.DublinCoreExt.Date) > 0 {
			item.Published = parseDate(rssItem.DublinCoreExt.Date[0])
		}
		if updated := extensionValue(rssItem.Extensions, "atom", "updated"); updated != "" {
			item.Updated = parseDate(updated)
		}

		if author := strings.TrimSpace(rssItem.Author); author != "" {
			item.Authors = append(item.Authors, Person{Email: author})
		} else if rssItem.DublinCoreExt != nil {
			for _, creator := range rssItem.DublinCoreExt.Creator {
				item.Authors = append(item.Authors, Person{Name: creator})
			}
		}

		for _, category := range rssItem.Categories {
			if category != nil {
				item.Categories = append(item.Categories, category.Value)
			}
		}

		result.Items = append(result.Items, item)
	}

	return result
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func alternateHref(links []*atom.Link) string {
	for _, link := range links {
		if link != nil && (link.Rel == "" || strings.EqualFold(link.Rel, "alternate")) {
			return link.Href
		}
	}
	return ""
}

// flattenExtensions lists gofeed's namespaced extensions grouped by prefix
// and element name. It is only used when the document-order scan cannot be
// matched to the parsed items.
func flattenExtensions(extensions ext.Extensions) []Extension {
	var result []Extension

	prefixes := make([]string, 0, len(extensions))
	for prefix := range extensions {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		names := make([]string, 0, len(extensions[prefix]))
		for name := range extensions[prefix] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, e := range extensions[prefix][name] {
				result = append(result, Extension{Prefix: prefix, Name: e.Name, Value: e.Value})
			}
		}
	}

	return result
}

func extensionValue(extensions ext.Extensions, prefix, name string) string {
	values := extensions[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func parseDate(value string) *time.Time {
	parsed, err := dateparse.ParseAny(strings.TrimSpace(value))
	if err != nil {
		slog.Debug("Unparseable date in feed extension", "value", value, "error", err)
		return nil
	}
	return &parsed
}
