package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusArchived  = "archived"
)

// ContentItem is read-only from the widget pipeline's perspective; it is
// authored elsewhere and only selected, sorted and rendered here.
type ContentItem struct {
	ID            uuid.UUID   `json:"id"`
	WebsiteID     uuid.UUID   `json:"website_id"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Excerpt       string      `json:"excerpt"`
	URL           string      `json:"url"`
	ImageURL      string      `json:"image_url,omitempty"`
	AuthorID      uuid.UUID   `json:"author_id"`
	AuthorName    string      `json:"author_name"`
	CategoryIDs   []uuid.UUID `json:"category_ids,omitempty"`
	CategoryNames []string    `json:"category_names,omitempty"`
	TagIDs        []uuid.UUID `json:"tag_ids,omitempty"`
	Status        string      `json:"status"`
	IsFeatured    bool        `json:"is_featured"`
	ViewCount     int         `json:"view_count"`
	PublishedAt   *time.Time  `json:"published_at,omitempty"`
}
