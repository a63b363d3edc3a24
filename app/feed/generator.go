package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/feed-reader/app/syndication"
)

// Generator renders normalized items back into a clean RSS 2.0 document.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: version,
	}
}

func (g *Generator) Run(name string, source *syndication.Feed, items []*Item) (string, error) {
	if source == nil {
		return "", fmt.Errorf("source feed is nil")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(source.Title, name), 4)
	g.writeElement(&buf, "link", source.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(source.Description, fmt.Sprintf("Normalized feed %s", name)), 4)

	if g.baseURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(fmt.Sprintf("%s/feeds/%s", g.baseURL, name))))
	}

	lastBuildDate := time.Now().UTC()
	if len(items) > 0 && items[0].LastUpdatedDate != nil && !items[0].LastUpdatedDate.IsZero() {
		lastBuildDate = *items[0].LastUpdatedDate
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("feed-reader/%s", cmp.Or(g.version, "dev")), 4)
	g.writeElement(&buf, "language", source.Language, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item *Item) {
	buf.WriteString("    <item>\n")

	if item.ID != nil {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(*item.ID)))
		xml.EscapeText(buf, []byte(*item.ID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", deref(item.Title), 6)

	if item.URI != nil {
		g.writeElement(buf, "link", item.URI.String(), 6)
	}

	summary := deref(item.GetSummary())
	g.writeElement(buf, "description", summary, 6)

	if content := deref(item.GetContent()); content != "" && content != summary {
		buf.WriteString("      <content:encoded>")
		xml.EscapeText(buf, []byte(content))
		buf.WriteString("</content:encoded>\n")
	}

	if item.PublishDate != nil && !item.PublishDate.IsZero() {
		g.writeElement(buf, "pubDate", item.PublishDate.Format(time.RFC1123Z), 6)
	}
	if item.LastUpdatedDate != nil && !item.LastUpdatedDate.IsZero() {
		g.writeElement(buf, "atom:updated", item.LastUpdatedDate.Format(time.RFC3339), 6)
	}

	for _, category := range item.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	for _, image := range item.Images {
		buf.WriteString(fmt.Sprintf("      <media:content url=\"%s\" medium=\"image\" />\n", html.EscapeString(image.String())))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
