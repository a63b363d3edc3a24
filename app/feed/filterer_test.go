package feed

import (
	"net/url"
	"testing"
)

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Test Item 1"), Summary: strPtr("Test description")},
		{Title: strPtr("Test Item 2"), Summary: strPtr("Another description")},
	}

	result := filterer.Run(items, &Config{Filters: []ConfigFilter{}})

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}
}

func TestFilterer_TitleIncludeFilter(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Breaking News: Important Update")},
		{Title: strPtr("Sports Update")},
		{Title: strPtr("Weather Report")},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"news", "update"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if *result[0].Title != "Breaking News: Important Update" || *result[1].Title != "Sports Update" {
		t.Errorf("Expected included items in original order, got: %q, %q", *result[0].Title, *result[1].Title)
	}
}

func TestFilterer_TitleExcludeFilter(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Regular Article")},
		{Title: strPtr("SPAM: Buy now")},
		{Title: strPtr("Another Article")},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Excludes: []string{"spam"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	for _, item := range result {
		if *item.Title == "SPAM: Buy now" {
			t.Errorf("Expected spam item to be excluded")
		}
	}
}

func TestFilterer_ExcludeWinsOverInclude(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Tech news"), Categories: []string{"Technology"}},
		{Title: strPtr("Sponsored tech news"), Categories: []string{"Technology", "Sponsored"}},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "categories", Includes: []string{"technology"}, Excludes: []string{"sponsored"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 || *result[0].Title != "Tech news" {
		t.Errorf("Expected only 'Tech news', got %d items", len(result))
	}
}

func TestFilterer_ContentAndSummaryFallback(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Only summary"), Summary: strPtr("golang release notes")},
		{Title: strPtr("Only content"), Content: strPtr("rust release notes")},
	}

	byContent := filterer.Run(items, &Config{
		Filters: []ConfigFilter{{Field: "content", Includes: []string{"golang"}}},
	})
	if len(byContent) != 1 || *byContent[0].Title != "Only summary" {
		t.Errorf("Expected content filter to fall back to summary, got %d items", len(byContent))
	}

	bySummary := filterer.Run(items, &Config{
		Filters: []ConfigFilter{{Field: "summary", Includes: []string{"rust"}}},
	})
	if len(bySummary) != 1 || *bySummary[0].Title != "Only content" {
		t.Errorf("Expected summary filter to fall back to content, got %d items", len(bySummary))
	}
}

func TestFilterer_URIFilter(t *testing.T) {
	filterer := NewFilterer()

	blog, _ := url.Parse("https://example.com/blog/post-1")
	ads, _ := url.Parse("https://ads.example.com/promo")

	items := []*Item{
		{Title: strPtr("Blog"), URI: blog},
		{Title: strPtr("Ad"), URI: ads},
		{Title: strPtr("No link")},
	}

	result := filterer.Run(items, &Config{
		Filters: []ConfigFilter{{Field: "uri", Excludes: []string{"ads."}}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if *result[0].Title != "Blog" || *result[1].Title != "No link" {
		t.Errorf("Unexpected items: %q, %q", *result[0].Title, *result[1].Title)
	}
}

func TestFilterer_MultipleFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []*Item{
		{Title: strPtr("Go 1.24 released"), Summary: strPtr("Release notes")},
		{Title: strPtr("Go meetup"), Summary: strPtr("Sponsored event")},
		{Title: strPtr("Python 3.13 released"), Summary: strPtr("Release notes")},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"go "}},
			{Field: "summary", Excludes: []string{"sponsored"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 || *result[0].Title != "Go 1.24 released" {
		t.Errorf("Expected only 'Go 1.24 released', got %d items", len(result))
	}
}
