package syndication

import (
	"bytes"
	"fmt"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

const (
	atomNamespace   = "http://www.w3.org/2005/Atom"
	atom03Namespace = "http://purl.org/atom/ns#"
)

// Namespaces whose item children are regular RSS content, not extensions.
var rssCorePrefixes = map[string]bool{
	"content": true,
	"rdf":     true,
	"rss":     true,
}

var rssItemElements = map[string]bool{
	"title":       true,
	"link":        true,
	"description": true,
	"author":      true,
	"category":    true,
	"comments":    true,
	"enclosure":   true,
	"guid":        true,
	"pubdate":     true,
	"source":      true,
}

// scanExtensions walks the document once and returns, per item or entry,
// the extension elements among its direct children in document order.
// Repeated elements are all kept.
func scanExtensions(data []byte, feedType FeedType) ([][]Extension, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), false, charset.NewReaderLabel)

	var items [][]Extension
	depth := 0
	itemDepth := 0

	for {
		event, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to scan extensions: %w", err)
		}

		switch event {
		case xpp.EndDocument:
			return items, nil

		case xpp.StartTag:
			depth++

			if itemDepth == 0 {
				if isEntryElement(p, feedType) {
					itemDepth = depth
					items = append(items, []Extension{})
				}
				continue
			}

			if depth != itemDepth+1 {
				continue
			}

			// the child is consumed whole, its end tag never reaches the loop
			depth--
			name := p.Name
			prefix, isExtension := extensionPrefix(p, feedType)
			if !isExtension {
				if err := p.Skip(); err != nil {
					return nil, fmt.Errorf("failed to skip element %s: %w", name, err)
				}
				continue
			}

			var element struct {
				Value string `xml:",chardata"`
			}
			if err := p.DecodeElement(&element); err != nil {
				return nil, fmt.Errorf("failed to decode extension %s: %w", name, err)
			}

			last := len(items) - 1
			items[last] = append(items[last], Extension{
				Prefix: prefix,
				Name:   name,
				Value:  strings.TrimSpace(element.Value),
			})

		case xpp.EndTag:
			if depth == itemDepth {
				itemDepth = 0
			}
			depth--
		}
	}
}

func isEntryElement(p *xpp.XMLPullParser, feedType FeedType) bool {
	if feedType == FeedTypeAtom {
		return strings.EqualFold(p.Name, "entry")
	}
	return strings.EqualFold(p.Name, "item")
}

// extensionPrefix reports the namespace prefix of the current element and
// whether it is an extension rather than a core feed element.
func extensionPrefix(p *xpp.XMLPullParser, feedType FeedType) (string, bool) {
	space := strings.TrimSpace(p.Space)

	prefix := ""
	if space != "" {
		if known, ok := p.Spaces[space]; ok {
			prefix = known
		} else {
			prefix = space
		}
	}

	if feedType == FeedTypeAtom {
		return prefix, space != atomNamespace && space != atom03Namespace
	}

	if rssCorePrefixes[prefix] {
		return prefix, false
	}
	if prefix == "" {
		return prefix, !rssItemElements[strings.ToLower(p.Name)]
	}
	return prefix, true
}
