package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/lib/logger/sl"
	"storyslip/internal/metrics"
	"storyslip/internal/repository"
	"storyslip/internal/services/access"
	"storyslip/internal/storage"
	"storyslip/internal/transport/http/dto"

	"github.com/google/uuid"
)

var (
	ErrWidgetNotFound   = errors.New("widget not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidEvent     = errors.New("invalid tracking event")
)

type Authorizer interface {
	Authorize(ctx context.Context, requesterID, websiteID uuid.UUID, required ...models.Role) (access.Decision, error)
}

type AnalyticsService struct {
	log     *slog.Logger
	repo    repository.AnalyticsRepository
	widgets repository.WidgetRepository
	auth    Authorizer
}

func NewAnalyticsService(
	log *slog.Logger,
	repo repository.AnalyticsRepository,
	widgets repository.WidgetRepository,
	auth Authorizer,
) *AnalyticsService {
	return &AnalyticsService{
		log:     log,
		repo:    repo,
		widgets: widgets,
		auth:    auth,
	}
}

// Track принимает событие с публичной поверхности виджета. Строка дня
// создается лениво upsert-ом, так что записи на день вперед не нужны.
func (s *AnalyticsService) Track(ctx context.Context, widgetID uuid.UUID, eventType models.TrackingEventType) error {
	const op = "analytics_service.Track"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
	)

	if !eventType.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidEvent, eventType)
	}

	widget, err := s.widgets.GetWidgetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to load widget", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !widget.IsPublic {
		return fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
	}

	if err := s.repo.IncrementEvent(ctx, widgetID, time.Now().UTC(), eventType); err != nil {
		log.Error("failed to record event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.TrackingEventsTotal.WithLabelValues(string(eventType)).Inc()
	return nil
}

// Summary агрегирует дневные строки за период для панели управления.
// Достаточно любого членства на сайте виджета.
func (s *AnalyticsService) Summary(ctx context.Context, requesterID, widgetID uuid.UUID, from, to time.Time) (*dto.AnalyticsSummaryResponse, error) {
	const op = "analytics_service.Summary"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
		slog.String("requester_id", requesterID.String()),
	)

	widget, err := s.widgets.GetWidgetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to load widget", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	decision, err := s.auth.Authorize(ctx, requesterID, widget.WebsiteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if decision.Outcome == access.NotAMember {
		// чужой сайт выглядит как отсутствующий виджет
		return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
	}
	if !decision.Allowed() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if from.After(to) {
		from, to = to, from
	}

	rows, err := s.repo.GetRange(ctx, widgetID, from, to)
	if err != nil {
		log.Error("failed to load analytics range", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total := models.WidgetAnalytics{WidgetID: widgetID}
	for _, row := range rows {
		total.Views += row.Views
		total.Clicks += row.Clicks
		total.Interactions += row.Interactions
	}

	return &dto.AnalyticsSummaryResponse{
		WidgetID:       widgetID,
		From:           from.Format("2006-01-02"),
		To:             to.Format("2006-01-02"),
		Views:          total.Views,
		Clicks:         total.Clicks,
		Interactions:   total.Interactions,
		EngagementRate: total.EngagementRate(),
	}, nil
}
