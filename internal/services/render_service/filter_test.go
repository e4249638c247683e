package services

import (
	"testing"
	"time"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int) *time.Time {
	t := time.Date(2025, time.March, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func snapshot() []models.ContentItem {
	catGo := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	catNews := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	tagHot := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	author := uuid.MustParse("44444444-4444-4444-4444-444444444444")

	return []models.ContentItem{
		{
			ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"), Title: "Alpha release",
			Status: models.ContentStatusPublished, PublishedAt: ts(1),
			CategoryIDs: []uuid.UUID{catGo}, CategoryNames: []string{"Go"},
			AuthorID: author, AuthorName: "Dana", ViewCount: 50,
		},
		{
			ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"), Title: "Beta notes",
			Status: models.ContentStatusPublished, PublishedAt: ts(5), IsFeatured: true,
			CategoryIDs: []uuid.UUID{catNews}, CategoryNames: []string{"News"},
			TagIDs:   []uuid.UUID{tagHot},
			AuthorID: uuid.New(), AuthorName: "Alex", ViewCount: 200,
		},
		{
			ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003"), Title: "Draft thoughts",
			Status: models.ContentStatusDraft, PublishedAt: ts(7),
			AuthorID: author, AuthorName: "Dana",
		},
		{
			ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004"), Title: "Gamma guide",
			Status: models.ContentStatusPublished, PublishedAt: ts(3),
			CategoryIDs: []uuid.UUID{catGo, catNews}, CategoryNames: []string{"Go", "News"},
			AuthorID: author, AuthorName: "Dana", ViewCount: 200,
		},
	}
}

func ids(items []models.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID.String()[len(item.ID.String())-1:])
	}
	return out
}

func TestFilterContent(t *testing.T) {
	catGo := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	catNews := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	tagHot := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	author := uuid.MustParse("44444444-4444-4444-4444-444444444444")

	tests := []struct {
		name    string
		filters models.ContentFilters
		want    []string // последняя цифра id
	}{
		{
			name:    "published only drops draft",
			filters: models.ContentFilters{PublishedOnly: true},
			want:    []string{"1", "2", "4"},
		},
		{
			name:    "featured only",
			filters: models.ContentFilters{FeaturedOnly: true},
			want:    []string{"2"},
		},
		{
			name:    "include category",
			filters: models.ContentFilters{IncludeCategories: []uuid.UUID{catGo}},
			want:    []string{"1", "4"},
		},
		{
			name: "include then exclude category",
			filters: models.ContentFilters{
				IncludeCategories: []uuid.UUID{catGo},
				ExcludeCategories: []uuid.UUID{catNews},
			},
			want: []string{"1"},
		},
		{
			name:    "include tag",
			filters: models.ContentFilters{IncludeTags: []uuid.UUID{tagHot}},
			want:    []string{"2"},
		},
		{
			name:    "exclude author",
			filters: models.ContentFilters{PublishedOnly: true, ExcludeAuthors: []uuid.UUID{author}},
			want:    []string{"2"},
		},
		{
			name:    "date range inclusive",
			filters: models.ContentFilters{DateRangeStart: ts(3), DateRangeEnd: ts(5)},
			want:    []string{"2", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterContent(snapshot(), tt.filters)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSortContent(t *testing.T) {
	items := FilterContent(snapshot(), models.ContentFilters{PublishedOnly: true})

	t.Run("date desc default", func(t *testing.T) {
		got := SortContent(items, models.SortByDate, models.SortDesc)
		assert.Equal(t, []string{"2", "4", "1"}, ids(got))
	})

	t.Run("title asc", func(t *testing.T) {
		got := SortContent(items, models.SortByTitle, models.SortAsc)
		assert.Equal(t, []string{"1", "2", "4"}, ids(got))
	})

	t.Run("views with id tiebreak", func(t *testing.T) {
		// элементы 2 и 4 имеют одинаковые просмотры, порядок решает id asc
		got := SortContent(items, models.SortByViews, models.SortDesc)
		assert.Equal(t, []string{"2", "4", "1"}, ids(got))
	})

	t.Run("deterministic", func(t *testing.T) {
		first := SortContent(items, models.SortByViews, models.SortDesc)
		second := SortContent(items, models.SortByViews, models.SortDesc)
		assert.Equal(t, ids(first), ids(second))
	})

	t.Run("input not mutated", func(t *testing.T) {
		before := ids(items)
		SortContent(items, models.SortByTitle, models.SortDesc)
		assert.Equal(t, before, ids(items))
	})
}

func TestSearchContent(t *testing.T) {
	items := snapshot()

	assert.Len(t, SearchContent(items, "beta"), 1)
	assert.Len(t, SearchContent(items, "BETA"), 1)
	assert.Len(t, SearchContent(items, ""), len(items))
	assert.Empty(t, SearchContent(items, "nothing-matches"))
}

func TestPaginate(t *testing.T) {
	items := SortContent(snapshot(), models.SortByTitle, models.SortAsc)
	require.Len(t, items, 4)

	t.Run("first page", func(t *testing.T) {
		got := Paginate(items, 1, 2)
		assert.Len(t, got, 2)
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, ids(Paginate(items, 2, 2)), ids(Paginate(items, 2, 2)))
	})

	t.Run("partial last page", func(t *testing.T) {
		got := Paginate(items, 2, 3)
		assert.Len(t, got, 1)
	})

	t.Run("past the end is empty not error", func(t *testing.T) {
		got := Paginate(items, 99, 2)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("page zero treated as first", func(t *testing.T) {
		assert.Equal(t, ids(Paginate(items, 1, 2)), ids(Paginate(items, 0, 2)))
	})
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 4, TotalPages(7, 2))
}
