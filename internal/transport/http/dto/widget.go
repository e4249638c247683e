package dto

import (
	"time"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
)

type CreateWidgetRequest struct {
	Name     string                 `json:"name" validate:"required,min=1,max=120"`
	Type     models.WidgetType      `json:"type" validate:"required"`
	Layout   models.WidgetLayout    `json:"layout"`
	Theme    models.WidgetTheme     `json:"theme"`
	Settings *models.WidgetSettings `json:"settings,omitempty"`
	Filters  *models.ContentFilters `json:"content_filters,omitempty"`
	Styling  *models.WidgetStyling  `json:"styling,omitempty"`
	IsPublic *bool                  `json:"is_public,omitempty"`
}

// UpdateWidgetRequest uses pointer fields so only supplied fields are
// touched; embed artifacts regenerate only when a presentation-affecting
// field is among them.
type UpdateWidgetRequest struct {
	Name     *string                `json:"name,omitempty"`
	Type     *models.WidgetType     `json:"type,omitempty"`
	Layout   *models.WidgetLayout   `json:"layout,omitempty"`
	Theme    *models.WidgetTheme    `json:"theme,omitempty"`
	Settings *models.WidgetSettings `json:"settings,omitempty"`
	Filters  *models.ContentFilters `json:"content_filters,omitempty"`
	Styling  *models.WidgetStyling  `json:"styling,omitempty"`
	IsPublic *bool                  `json:"is_public,omitempty"`
}

type WidgetResponse struct {
	ID         uuid.UUID             `json:"id"`
	WebsiteID  uuid.UUID             `json:"website_id"`
	Name       string                `json:"name"`
	Type       models.WidgetType     `json:"type"`
	Layout     models.WidgetLayout   `json:"layout"`
	Theme      models.WidgetTheme    `json:"theme"`
	Settings   models.WidgetSettings `json:"settings"`
	Filters    models.ContentFilters `json:"content_filters"`
	Styling    models.WidgetStyling  `json:"styling"`
	IsPublic   bool                  `json:"is_public"`
	APIKey     string                `json:"api_key"`
	EmbedCode  string                `json:"embed_code"`
	PreviewURL string                `json:"preview_url"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

type WidgetListResponse struct {
	Widgets    []WidgetResponse `json:"widgets"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
}
