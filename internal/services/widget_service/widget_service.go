package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/lib/logger/sl"
	"storyslip/internal/repository"
	"storyslip/internal/services/access"
	"storyslip/internal/storage"
	"storyslip/internal/transport/http/dto"

	"github.com/google/uuid"
)

var (
	ErrWidgetNotFound   = errors.New("widget not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidWidget    = errors.New("invalid widget configuration")
)

// Authorizer is the single capability check reused by every mutating
// operation.
type Authorizer interface {
	Authorize(ctx context.Context, requesterID, websiteID uuid.UUID, required ...models.Role) (access.Decision, error)
}

type WidgetService struct {
	log       *slog.Logger
	repo      repository.WidgetRepository
	analytics repository.AnalyticsRepository
	cache     repository.RenderCache
	auth      Authorizer
	baseURL   string
}

func NewWidgetService(
	log *slog.Logger,
	repo repository.WidgetRepository,
	analytics repository.AnalyticsRepository,
	cache repository.RenderCache,
	auth Authorizer,
	baseURL string,
) *WidgetService {
	return &WidgetService{
		log:       log,
		repo:      repo,
		analytics: analytics,
		cache:     cache,
		auth:      auth,
		baseURL:   baseURL,
	}
}

var writerRoles = []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleEditor}
var deleterRoles = []models.Role{models.RoleOwner, models.RoleAdmin}

// CreateWidget создает конфигурацию виджета и нулевую строку аналитики
// на текущий день.
func (s *WidgetService) CreateWidget(ctx context.Context, websiteID, requesterID uuid.UUID, req dto.CreateWidgetRequest) (*dto.WidgetResponse, error) {
	const op = "widget_service.CreateWidget"
	log := s.log.With(
		slog.String("op", op),
		slog.String("website_id", websiteID.String()),
		slog.String("requester_id", requesterID.String()),
	)

	log.Info("creating widget", slog.String("name", req.Name), slog.String("type", string(req.Type)))

	if err := s.authorize(ctx, log, requesterID, websiteID, writerRoles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	widget := models.WidgetConfig{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		Name:      req.Name,
		Type:      req.Type,
		Layout:    req.Layout,
		Theme:     req.Theme,
		IsPublic:  true,
		APIKey:    generateAPIKey(),
	}

	if req.Settings != nil {
		widget.Settings = *req.Settings
	}
	if req.Filters != nil {
		widget.Filters = *req.Filters
	}
	if req.Styling != nil {
		widget.Styling = *req.Styling
	}
	if req.IsPublic != nil {
		widget.IsPublic = *req.IsPublic
	}

	applyDefaults(&widget)

	if err := validateWidget(widget); err != nil {
		log.Warn("invalid widget configuration", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	widget.EmbedCode = GenerateEmbedCode(widget, s.baseURL)
	widget.PreviewURL = GeneratePreviewURL(widget, s.baseURL)

	id, err := s.repo.SaveWidget(ctx, widget)
	if err != nil {
		log.Error("failed to save widget", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.analytics.EnsureDailyRecord(ctx, id, time.Now().UTC()); err != nil {
		// не фатально для создания, строка появится лениво при первом событии
		log.Warn("failed to seed analytics record", sl.Err(err))
	}

	log.Info("widget created successfully", slog.String("widget_id", id.String()))
	return s.toWidgetResponse(ctx, id)
}

// UpdateWidget re-authorizes against the owning website, merges non-nil
// patch fields and regenerates embed artifacts only when a
// presentation-affecting field changed.
func (s *WidgetService) UpdateWidget(ctx context.Context, widgetID, requesterID uuid.UUID, req dto.UpdateWidgetRequest) (*dto.WidgetResponse, error) {
	const op = "widget_service.UpdateWidget"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
		slog.String("requester_id", requesterID.String()),
	)

	log.Info("updating widget")

	existing, err := s.getOwned(ctx, log, widgetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.authorize(ctx, log, requesterID, existing.WebsiteID, writerRoles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updates := make(map[string]interface{})
	merged := *existing
	embedRelevant := false

	if req.Name != nil {
		updates["name"] = *req.Name
		merged.Name = *req.Name
	}
	if req.Type != nil {
		updates["type"] = *req.Type
		merged.Type = *req.Type
		embedRelevant = true
	}
	if req.Layout != nil {
		updates["layout"] = *req.Layout
		merged.Layout = *req.Layout
		embedRelevant = true
	}
	if req.Theme != nil {
		updates["theme"] = *req.Theme
		merged.Theme = *req.Theme
		embedRelevant = true
	}
	if req.Settings != nil {
		raw, err := json.Marshal(req.Settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["settings"] = raw
		merged.Settings = *req.Settings
		embedRelevant = true
	}
	if req.Filters != nil {
		raw, err := json.Marshal(req.Filters)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["content_filters"] = raw
		merged.Filters = *req.Filters
	}
	if req.Styling != nil {
		raw, err := json.Marshal(req.Styling)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["styling"] = raw
		merged.Styling = *req.Styling
		embedRelevant = true
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
		merged.IsPublic = *req.IsPublic
	}

	if len(updates) == 0 {
		log.Info("no fields to update")
		return s.toWidgetResponse(ctx, widgetID)
	}

	if err := validateWidget(merged); err != nil {
		log.Warn("invalid widget configuration", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if embedRelevant {
		updates["embed_code"] = GenerateEmbedCode(merged, s.baseURL)
		updates["preview_url"] = GeneratePreviewURL(merged, s.baseURL)
		log.Debug("embed code regenerated")
	}

	if err := s.repo.UpdateWidgetFields(ctx, widgetID, updates); err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to update widget", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, widgetID); err != nil {
		log.Warn("failed to invalidate render cache", sl.Err(err))
	}

	log.Info("widget updated successfully")
	return s.toWidgetResponse(ctx, widgetID)
}

// GetWidget serves both planes: a nil requester is the public render path
// and only sees public widgets; a management-plane requester must be a
// member of the owning website.
func (s *WidgetService) GetWidget(ctx context.Context, widgetID uuid.UUID, requesterID *uuid.UUID) (*dto.WidgetResponse, error) {
	const op = "widget_service.GetWidget"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
	)

	widget, err := s.getOwned(ctx, log, widgetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if requesterID == nil {
		if !widget.IsPublic {
			return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		return mapToWidgetResponse(widget), nil
	}

	decision, err := s.auth.Authorize(ctx, *requesterID, widget.WebsiteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed() {
		// членство не раскрываем, для чужих виджет просто не существует
		return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
	}

	return mapToWidgetResponse(widget), nil
}

// DeleteWidget removes the configuration and its analytics rows. The
// second delete of the same id returns ErrWidgetNotFound; deletion is
// deliberately not idempotent.
func (s *WidgetService) DeleteWidget(ctx context.Context, widgetID, requesterID uuid.UUID) error {
	const op = "widget_service.DeleteWidget"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
		slog.String("requester_id", requesterID.String()),
	)

	log.Info("deleting widget")

	existing, err := s.getOwned(ctx, log, widgetID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.authorize(ctx, log, requesterID, existing.WebsiteID, deleterRoles); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.DeleteWidget(ctx, widgetID); err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to delete widget", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.analytics.DeleteWidgetAnalytics(ctx, widgetID); err != nil {
		log.Error("failed to cascade analytics deletion", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, widgetID); err != nil {
		log.Warn("failed to invalidate render cache", sl.Err(err))
	}

	log.Info("widget deleted successfully")
	return nil
}

func (s *WidgetService) ListWidgets(ctx context.Context, websiteID, requesterID uuid.UUID, page, perPage int) (*dto.WidgetListResponse, error) {
	const op = "widget_service.ListWidgets"
	log := s.log.With(
		slog.String("op", op),
		slog.String("website_id", websiteID.String()),
	)

	decision, err := s.auth.Authorize(ctx, requesterID, websiteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed() {
		return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	widgets, total, err := s.repo.ListWidgets(ctx, websiteID, page, perPage)
	if err != nil {
		log.Error("failed to list widgets", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	response := &dto.WidgetListResponse{
		Widgets:    make([]dto.WidgetResponse, 0, len(widgets)),
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}
	for i := range widgets {
		response.Widgets = append(response.Widgets, *mapToWidgetResponse(&widgets[i]))
	}

	log.Info("widgets listed successfully", slog.Int("count", len(widgets)))
	return response, nil
}

func (s *WidgetService) authorize(ctx context.Context, log *slog.Logger, requesterID, websiteID uuid.UUID, required []models.Role) error {
	decision, err := s.auth.Authorize(ctx, requesterID, websiteID, required...)
	if err != nil {
		return err
	}

	switch decision.Outcome {
	case access.Authorized:
		return nil
	case access.Denied:
		log.Warn("permission denied", slog.String("role", string(decision.Role)))
		return ErrPermissionDenied
	default:
		log.Warn("requester is not a member")
		return ErrWidgetNotFound
	}
}

func (s *WidgetService) getOwned(ctx context.Context, log *slog.Logger, widgetID uuid.UUID) (*models.WidgetConfig, error) {
	widget, err := s.repo.GetWidgetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return nil, ErrWidgetNotFound
		}
		log.Error("failed to get widget", sl.Err(err))
		return nil, err
	}
	return widget, nil
}

func applyDefaults(w *models.WidgetConfig) {
	if w.Layout == "" {
		w.Layout = models.LayoutGrid
	}
	if w.Theme == "" {
		w.Theme = models.ThemeModern
	}
	if w.Settings.PostsPerPage == 0 {
		w.Settings = models.WidgetSettings{
			PostsPerPage:   10,
			ShowPagination: true,
			ShowExcerpt:    true,
			ShowImage:      true,
			ShowDate:       true,
			PoweredBy:      true,
		}
	}
	if w.Filters.SortBy == "" {
		w.Filters.PublishedOnly = true
		w.Filters.SortBy = models.SortByDate
		w.Filters.SortOrder = models.SortDesc
	}
}

func validateWidget(w models.WidgetConfig) error {
	if !w.Type.Valid() {
		return fmt.Errorf("%w: unknown type '%s'", ErrInvalidWidget, w.Type)
	}
	if !w.Layout.Valid() {
		return fmt.Errorf("%w: unknown layout '%s'", ErrInvalidWidget, w.Layout)
	}
	if !w.Theme.Valid() {
		return fmt.Errorf("%w: unknown theme '%s'", ErrInvalidWidget, w.Theme)
	}
	if w.Settings.PostsPerPage < 1 || w.Settings.PostsPerPage > 100 {
		return fmt.Errorf("%w: posts_per_page out of range", ErrInvalidWidget)
	}
	return nil
}

func (s *WidgetService) toWidgetResponse(ctx context.Context, widgetID uuid.UUID) (*dto.WidgetResponse, error) {
	widget, err := s.repo.GetWidgetByID(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	return mapToWidgetResponse(widget), nil
}

func mapToWidgetResponse(w *models.WidgetConfig) *dto.WidgetResponse {
	return &dto.WidgetResponse{
		ID:         w.ID,
		WebsiteID:  w.WebsiteID,
		Name:       w.Name,
		Type:       w.Type,
		Layout:     w.Layout,
		Theme:      w.Theme,
		Settings:   w.Settings,
		Filters:    w.Filters,
		Styling:    w.Styling,
		IsPublic:   w.IsPublic,
		APIKey:     w.APIKey,
		EmbedCode:  w.EmbedCode,
		PreviewURL: w.PreviewURL,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}
