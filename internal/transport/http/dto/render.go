package dto

import (
	"time"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
)

type RenderResponse struct {
	HTML       string             `json:"html"`
	CSS        string             `json:"css"`
	JS         string             `json:"js,omitempty"`
	Meta       *models.RenderMeta `json:"meta,omitempty"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	TotalItems int                `json:"total_items"`
}

// ContentListResponse is the legacy widget content feed shape; it predates
// the status/data envelope and keeps the `success` flag for old embeds.
type ContentListResponse struct {
	Success bool                  `json:"success"`
	Data    []ContentItemResponse `json:"data"`
}

type ContentItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url,omitempty"`
	AuthorName  string     `json:"author_name"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type TrackEventRequest struct {
	EventType string                 `json:"event_type" validate:"required"`
	EventData map[string]interface{} `json:"event_data"`
	WebsiteID uuid.UUID              `json:"website_id" validate:"required"`
}

type AnalyticsSummaryResponse struct {
	WidgetID       uuid.UUID `json:"widget_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Views          int       `json:"views"`
	Clicks         int       `json:"clicks"`
	Interactions   int       `json:"interactions"`
	EngagementRate float64   `json:"engagement_rate"`
}
