package models

import (
	"time"

	"github.com/google/uuid"
)

// WidgetType is the closed set of embeddable widget variants. Each type has
// its own render template; adding a type means adding a template.
type WidgetType string

const (
	WidgetTypeBlogHub       WidgetType = "blog_hub"
	WidgetTypeContentList   WidgetType = "content_list"
	WidgetTypeFeaturedPosts WidgetType = "featured_posts"
	WidgetTypeCategoryGrid  WidgetType = "category_grid"
	WidgetTypeSearchWidget  WidgetType = "search_widget"
)

func (t WidgetType) Valid() bool {
	switch t {
	case WidgetTypeBlogHub, WidgetTypeContentList, WidgetTypeFeaturedPosts,
		WidgetTypeCategoryGrid, WidgetTypeSearchWidget:
		return true
	}
	return false
}

// WidgetLayout only changes CSS class modifiers, never the DOM structure.
type WidgetLayout string

const (
	LayoutGrid     WidgetLayout = "grid"
	LayoutList     WidgetLayout = "list"
	LayoutMasonry  WidgetLayout = "masonry"
	LayoutCarousel WidgetLayout = "carousel"
	LayoutMagazine WidgetLayout = "magazine"
)

func (l WidgetLayout) Valid() bool {
	switch l {
	case LayoutGrid, LayoutList, LayoutMasonry, LayoutCarousel, LayoutMagazine:
		return true
	}
	return false
}

type WidgetTheme string

const (
	ThemeModern   WidgetTheme = "modern"
	ThemeMinimal  WidgetTheme = "minimal"
	ThemeClassic  WidgetTheme = "classic"
	ThemeMagazine WidgetTheme = "magazine"
	ThemeDark     WidgetTheme = "dark"
	ThemeCustom   WidgetTheme = "custom"
)

func (t WidgetTheme) Valid() bool {
	switch t {
	case ThemeModern, ThemeMinimal, ThemeClassic, ThemeMagazine, ThemeDark, ThemeCustom:
		return true
	}
	return false
}

type SortField string

const (
	SortByDate     SortField = "date"
	SortByTitle    SortField = "title"
	SortByAuthor   SortField = "author"
	SortByCategory SortField = "category"
	SortByViews    SortField = "views"
	SortByCustom   SortField = "custom"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// WidgetSettings are the behavior flags of one widget instance.
type WidgetSettings struct {
	PostsPerPage      int  `json:"posts_per_page"`
	ShowPagination    bool `json:"show_pagination"`
	InfiniteScroll    bool `json:"infinite_scroll"`
	ShowSearch        bool `json:"show_search"`
	ShowExcerpt       bool `json:"show_excerpt"`
	ShowImage         bool `json:"show_image"`
	ShowAuthor        bool `json:"show_author"`
	ShowDate          bool `json:"show_date"`
	OpenLinksInNewTab bool `json:"open_links_in_new_tab"`
	PoweredBy         bool `json:"powered_by"`
}

// ContentFilters select which content items a widget renders.
type ContentFilters struct {
	PublishedOnly     bool        `json:"published_only"`
	FeaturedOnly      bool        `json:"featured_only"`
	IncludeCategories []uuid.UUID `json:"include_categories,omitempty"`
	ExcludeCategories []uuid.UUID `json:"exclude_categories,omitempty"`
	IncludeTags       []uuid.UUID `json:"include_tags,omitempty"`
	ExcludeTags       []uuid.UUID `json:"exclude_tags,omitempty"`
	IncludeAuthors    []uuid.UUID `json:"include_authors,omitempty"`
	ExcludeAuthors    []uuid.UUID `json:"exclude_authors,omitempty"`
	DateRangeStart    *time.Time  `json:"date_range_start,omitempty"`
	DateRangeEnd      *time.Time  `json:"date_range_end,omitempty"`
	SortBy            SortField   `json:"sort_by"`
	SortOrder         SortOrder   `json:"sort_order"`
}

// WidgetStyling maps 1:1 onto generated CSS rules. CustomCSS is appended
// after the generated rules so tenant overrides always win.
type WidgetStyling struct {
	Width           string `json:"width,omitempty"`
	Height          string `json:"height,omitempty"`
	BorderRadius    string `json:"border_radius,omitempty"`
	Padding         string `json:"padding,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	HeadingColor    string `json:"heading_color,omitempty"`
	AccentColor     string `json:"accent_color,omitempty"`
	FontFamily      string `json:"font_family,omitempty"`
	FontSize        string `json:"font_size,omitempty"`
	CustomCSS       string `json:"custom_css,omitempty"`
}

// WidgetConfig is one embeddable widget instance. EmbedCode and PreviewURL
// are deterministic functions of (ID, Type, Layout, Theme, Settings, Styling)
// and are regenerated whenever any of those change.
type WidgetConfig struct {
	ID         uuid.UUID      `json:"id"`
	WebsiteID  uuid.UUID      `json:"website_id"`
	Name       string         `json:"name"`
	Type       WidgetType     `json:"type"`
	Layout     WidgetLayout   `json:"layout"`
	Theme      WidgetTheme    `json:"theme"`
	Settings   WidgetSettings `json:"settings"`
	Filters    ContentFilters `json:"content_filters"`
	Styling    WidgetStyling  `json:"styling"`
	IsPublic   bool           `json:"is_public"`
	APIKey     string         `json:"api_key"`
	EmbedCode  string         `json:"embed_code"`
	PreviewURL string         `json:"preview_url"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
