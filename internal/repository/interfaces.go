package repository

import (
	"context"
	"time"

	"storyslip/internal/domain/models"

	"github.com/google/uuid"
)

type WidgetRepository interface {
	SaveWidget(ctx context.Context, widget models.WidgetConfig) (uuid.UUID, error)
	GetWidgetByID(ctx context.Context, widgetID uuid.UUID) (*models.WidgetConfig, error)
	GetWidgetByAPIKey(ctx context.Context, apiKey string) (*models.WidgetConfig, error)
	UpdateWidgetFields(ctx context.Context, widgetID uuid.UUID, updates map[string]interface{}) error
	DeleteWidget(ctx context.Context, widgetID uuid.UUID) error
	ListWidgets(ctx context.Context, websiteID uuid.UUID, page, perPage int) ([]models.WidgetConfig, int, error)
}

type ContentRepository interface {
	// GetWebsiteContent returns the full content snapshot for a website.
	// Filtering and ordering happen in the render engine, not in SQL, so
	// the engine stays a pure function over one snapshot.
	GetWebsiteContent(ctx context.Context, websiteID uuid.UUID) ([]models.ContentItem, error)
}

type MembershipRepository interface {
	GetMembership(ctx context.Context, userID, websiteID uuid.UUID) (*models.Membership, error)
}

type AnalyticsRepository interface {
	EnsureDailyRecord(ctx context.Context, widgetID uuid.UUID, date time.Time) error
	IncrementEvent(ctx context.Context, widgetID uuid.UUID, date time.Time, eventType models.TrackingEventType) error
	GetRange(ctx context.Context, widgetID uuid.UUID, from, to time.Time) ([]models.WidgetAnalytics, error)
	DeleteWidgetAnalytics(ctx context.Context, widgetID uuid.UUID) error
}

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// RenderCache is the shared render-payload cache keyed by
// (widget, page, search). Entries expire on TTL and are purged on any
// widget mutation.
type RenderCache interface {
	Get(ctx context.Context, widgetID uuid.UUID, page int, search string) (*models.RenderedWidget, error)
	Set(ctx context.Context, widgetID uuid.UUID, page int, search string, payload *models.RenderedWidget, ttl time.Duration) error
	Invalidate(ctx context.Context, widgetID uuid.UUID) error
}
