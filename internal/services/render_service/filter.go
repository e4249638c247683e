package services

import (
	"sort"
	"strings"
	"time"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
)

// FilterContent applies a widget's content filters to a snapshot. Pure:
// the input slice is never mutated and equal inputs give equal outputs.
func FilterContent(items []models.ContentItem, filters models.ContentFilters) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))

	for _, item := range items {
		if filters.PublishedOnly && item.Status != models.ContentStatusPublished {
			continue
		}
		if filters.FeaturedOnly && !item.IsFeatured {
			continue
		}
		if len(filters.IncludeCategories) > 0 && !intersects(item.CategoryIDs, filters.IncludeCategories) {
			continue
		}
		if intersects(item.CategoryIDs, filters.ExcludeCategories) {
			continue
		}
		if len(filters.IncludeTags) > 0 && !intersects(item.TagIDs, filters.IncludeTags) {
			continue
		}
		if intersects(item.TagIDs, filters.ExcludeTags) {
			continue
		}
		if len(filters.IncludeAuthors) > 0 && !contains(filters.IncludeAuthors, item.AuthorID) {
			continue
		}
		if contains(filters.ExcludeAuthors, item.AuthorID) {
			continue
		}
		if filters.DateRangeStart != nil {
			if item.PublishedAt == nil || item.PublishedAt.Before(*filters.DateRangeStart) {
				continue
			}
		}
		if filters.DateRangeEnd != nil {
			if item.PublishedAt == nil || item.PublishedAt.After(*filters.DateRangeEnd) {
				continue
			}
		}

		out = append(out, item)
	}

	return out
}

// SearchContent narrows a snapshot by a case-insensitive substring match
// on title and excerpt. Empty query returns the input unchanged.
func SearchContent(items []models.ContentItem, query string) []models.ContentItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) ||
			strings.Contains(strings.ToLower(item.Excerpt), query) {
			out = append(out, item)
		}
	}

	return out
}

// SortContent orders items by the configured field and direction. Ties
// always break by item id ascending so output stays deterministic and
// cache keys stay honest.
func SortContent(items []models.ContentItem, sortBy models.SortField, order models.SortOrder) []models.ContentItem {
	out := make([]models.ContentItem, len(items))
	copy(out, items)

	desc := order == models.SortDesc

	sort.Slice(out, func(i, j int) bool {
		less, equal := compareItems(out[i], out[j], sortBy)
		if equal {
			return out[i].ID.String() < out[j].ID.String()
		}
		if desc {
			return !less
		}
		return less
	})

	return out
}

func compareItems(a, b models.ContentItem, sortBy models.SortField) (less, equal bool) {
	switch sortBy {
	case models.SortByTitle:
		return a.Title < b.Title, a.Title == b.Title
	case models.SortByAuthor:
		return a.AuthorName < b.AuthorName, a.AuthorName == b.AuthorName
	case models.SortByCategory:
		ca, cb := firstCategory(a), firstCategory(b)
		return ca < cb, ca == cb
	case models.SortByViews:
		return a.ViewCount < b.ViewCount, a.ViewCount == b.ViewCount
	case models.SortByCustom:
		// custom ordering is item id order until per-widget manual
		// ordering is modeled
		return false, true
	default: // SortByDate
		ta, tb := publishedOrZero(a), publishedOrZero(b)
		return ta.Before(tb), ta.Equal(tb)
	}
}

// Paginate slices out a 1-based page. A page past the end yields an empty
// slice, never an error.
func Paginate(items []models.ContentItem, page, perPage int) []models.ContentItem {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return []models.ContentItem{}
	}

	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

func TotalPages(totalItems, perPage int) int {
	if perPage < 1 {
		perPage = 10
	}
	if totalItems == 0 {
		return 0
	}
	return (totalItems + perPage - 1) / perPage
}

func intersects(a, b []uuid.UUID) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

func contains(list []uuid.UUID, id uuid.UUID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

func firstCategory(item models.ContentItem) string {
	if len(item.CategoryNames) == 0 {
		return ""
	}
	return item.CategoryNames[0]
}

func publishedOrZero(item models.ContentItem) time.Time {
	if item.PublishedAt != nil {
		return *item.PublishedAt
	}
	return time.Time{}
}
