package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the items that pass every configured filter, in their original order.
func (f *Filterer) Run(items []*Item, feedConfig *Config) []*Item {
	if len(feedConfig.Filters) == 0 {
		return items
	}

	kept := make([]*Item, 0, len(items))
	for _, item := range items {
		isFiltered, filterReason := f.applyFilters(item, feedConfig.Filters)
		if isFiltered {
			slog.Debug("Item filtered", "feed", feedConfig.Name, "id", deref(item.ID), "reason", filterReason)
			continue
		}
		kept = append(kept, item)
	}

	return kept
}

func (f *Filterer) applyFilters(item *Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item *Item, field string) string {
	switch field {
	case "title":
		return deref(item.Title)
	case "content":
		return deref(item.GetContent())
	case "summary":
		return deref(item.GetSummary())
	case "categories":
		return strings.Join(item.Categories, " ")
	case "uri":
		if item.URI == nil {
			return ""
		}
		return item.URI.String()
	default:
		return ""
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
