package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/services/access"
	"storyslip/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) EnsureDailyRecord(ctx context.Context, widgetID uuid.UUID, date time.Time) error {
	args := m.Called(ctx, widgetID, date)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) IncrementEvent(ctx context.Context, widgetID uuid.UUID, date time.Time, eventType models.TrackingEventType) error {
	args := m.Called(ctx, widgetID, date, eventType)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) GetRange(ctx context.Context, widgetID uuid.UUID, from, to time.Time) ([]models.WidgetAnalytics, error) {
	args := m.Called(ctx, widgetID, from, to)
	return args.Get(0).([]models.WidgetAnalytics), args.Error(1)
}

func (m *MockAnalyticsRepository) DeleteWidgetAnalytics(ctx context.Context, widgetID uuid.UUID) error {
	args := m.Called(ctx, widgetID)
	return args.Error(0)
}

type MockWidgetRepository struct {
	mock.Mock
}

func (m *MockWidgetRepository) SaveWidget(ctx context.Context, widget models.WidgetConfig) (uuid.UUID, error) {
	args := m.Called(ctx, widget)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockWidgetRepository) GetWidgetByID(ctx context.Context, widgetID uuid.UUID) (*models.WidgetConfig, error) {
	args := m.Called(ctx, widgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WidgetConfig), args.Error(1)
}

func (m *MockWidgetRepository) GetWidgetByAPIKey(ctx context.Context, apiKey string) (*models.WidgetConfig, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WidgetConfig), args.Error(1)
}

func (m *MockWidgetRepository) UpdateWidgetFields(ctx context.Context, widgetID uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, widgetID, updates)
	return args.Error(0)
}

func (m *MockWidgetRepository) DeleteWidget(ctx context.Context, widgetID uuid.UUID) error {
	args := m.Called(ctx, widgetID)
	return args.Error(0)
}

func (m *MockWidgetRepository) ListWidgets(ctx context.Context, websiteID uuid.UUID, page, perPage int) ([]models.WidgetConfig, int, error) {
	args := m.Called(ctx, websiteID, page, perPage)
	return args.Get(0).([]models.WidgetConfig), args.Int(1), args.Error(2)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, requesterID, websiteID uuid.UUID, required ...models.Role) (access.Decision, error) {
	args := m.Called(ctx, requesterID, websiteID, required)
	return args.Get(0).(access.Decision), args.Error(1)
}

func newAnalyticsService(t *testing.T) (*AnalyticsService, *MockAnalyticsRepository, *MockWidgetRepository, *MockAuthorizer) {
	t.Helper()

	repo := new(MockAnalyticsRepository)
	widgets := new(MockWidgetRepository)
	auth := new(MockAuthorizer)

	return NewAnalyticsService(slog.Default(), repo, widgets, auth), repo, widgets, auth
}

func TestAnalyticsService_Track(t *testing.T) {
	ctx := context.Background()

	widget := &models.WidgetConfig{ID: uuid.New(), WebsiteID: uuid.New(), IsPublic: true}

	tests := []struct {
		name      string
		eventType models.TrackingEventType
		wantErr   error
	}{
		{name: "view", eventType: models.EventView},
		{name: "click", eventType: models.EventClick},
		{name: "interaction", eventType: models.EventInteraction},
		{name: "unknown event", eventType: "hover", wantErr: ErrInvalidEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, widgets, _ := newAnalyticsService(t)

			if tt.wantErr == nil {
				widgets.On("GetWidgetByID", ctx, widget.ID).Return(widget, nil).Once()
				repo.On("IncrementEvent", ctx, widget.ID, mock.AnythingOfType("time.Time"), tt.eventType).
					Return(nil).Once()
			}

			err := svc.Track(ctx, widget.ID, tt.eventType)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "IncrementEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestAnalyticsService_Track_PrivateWidget(t *testing.T) {
	ctx := context.Background()
	svc, repo, widgets, _ := newAnalyticsService(t)

	widget := &models.WidgetConfig{ID: uuid.New(), WebsiteID: uuid.New(), IsPublic: false}
	widgets.On("GetWidgetByID", ctx, widget.ID).Return(widget, nil).Once()

	err := svc.Track(ctx, widget.ID, models.EventView)
	assert.ErrorIs(t, err, ErrWidgetNotFound)
	repo.AssertNotCalled(t, "IncrementEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, repo, widgets, auth := newAnalyticsService(t)

	requesterID := uuid.New()
	widget := &models.WidgetConfig{ID: uuid.New(), WebsiteID: uuid.New(), IsPublic: true}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	widgets.On("GetWidgetByID", ctx, widget.ID).Return(widget, nil).Once()
	auth.On("Authorize", ctx, requesterID, widget.WebsiteID, []models.Role(nil)).
		Return(access.Decision{Outcome: access.Authorized, Role: models.RoleViewer}, nil).Once()
	repo.On("GetRange", ctx, widget.ID, from, to).Return([]models.WidgetAnalytics{
		{WidgetID: widget.ID, Date: from, Views: 100, Clicks: 10, Interactions: 4},
		{WidgetID: widget.ID, Date: from.AddDate(0, 0, 1), Views: 100, Clicks: 40, Interactions: 6},
	}, nil).Once()

	summary, err := svc.Summary(ctx, requesterID, widget.ID, from, to)
	require.NoError(t, err)

	assert.Equal(t, 200, summary.Views)
	assert.Equal(t, 50, summary.Clicks)
	assert.Equal(t, 10, summary.Interactions)
	assert.InDelta(t, 0.25, summary.EngagementRate, 1e-9)
	assert.Equal(t, "2025-03-01", summary.From)
	assert.Equal(t, "2025-03-07", summary.To)
}

func TestAnalyticsService_Summary_NoViews(t *testing.T) {
	ctx := context.Background()
	svc, repo, widgets, auth := newAnalyticsService(t)

	requesterID := uuid.New()
	widget := &models.WidgetConfig{ID: uuid.New(), WebsiteID: uuid.New(), IsPublic: true}
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	widgets.On("GetWidgetByID", ctx, widget.ID).Return(widget, nil).Once()
	auth.On("Authorize", ctx, requesterID, widget.WebsiteID, []models.Role(nil)).
		Return(access.Decision{Outcome: access.Authorized, Role: models.RoleOwner}, nil).Once()
	repo.On("GetRange", ctx, widget.ID, from, to).Return([]models.WidgetAnalytics{}, nil).Once()

	summary, err := svc.Summary(ctx, requesterID, widget.ID, from, to)
	require.NoError(t, err)

	assert.Zero(t, summary.Views)
	assert.Zero(t, summary.EngagementRate)
}

func TestAnalyticsService_Summary_NotAMember(t *testing.T) {
	ctx := context.Background()
	svc, _, widgets, auth := newAnalyticsService(t)

	requesterID := uuid.New()
	widget := &models.WidgetConfig{ID: uuid.New(), WebsiteID: uuid.New(), IsPublic: true}

	widgets.On("GetWidgetByID", ctx, widget.ID).Return(widget, nil).Once()
	auth.On("Authorize", ctx, requesterID, widget.WebsiteID, []models.Role(nil)).
		Return(access.Decision{Outcome: access.NotAMember}, nil).Once()

	_, err := svc.Summary(ctx, requesterID, widget.ID, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrWidgetNotFound)
}

func TestAnalyticsService_Summary_MissingWidget(t *testing.T) {
	ctx := context.Background()
	svc, _, widgets, _ := newAnalyticsService(t)

	widgetID := uuid.New()
	widgets.On("GetWidgetByID", ctx, widgetID).
		Return(nil, fmt.Errorf("repo: %w", storage.ErrWidgetNotFound)).Once()

	_, err := svc.Summary(ctx, uuid.New(), widgetID, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrWidgetNotFound)
}
