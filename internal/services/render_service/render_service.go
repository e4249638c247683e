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
	"storyslip/internal/storage"
	"storyslip/internal/transport/http/dto"

	"github.com/google/uuid"
)

var ErrWidgetNotFound = errors.New("widget not found")

type RenderService struct {
	log      *slog.Logger
	widgets  repository.WidgetRepository
	content  repository.ContentRepository
	cache    repository.RenderCache
	renderer *Renderer
	cacheTTL time.Duration
}

func NewRenderService(
	log *slog.Logger,
	widgets repository.WidgetRepository,
	content repository.ContentRepository,
	cache repository.RenderCache,
	cacheTTL time.Duration,
) *RenderService {
	return &RenderService{
		log:      log,
		widgets:  widgets,
		content:  content,
		cache:    cache,
		renderer: NewRenderer(),
		cacheTTL: cacheTTL,
	}
}

// RenderWidget — горячий путь: каждый встроенный виджет бьет сюда на
// каждую страницу/поиск. Stateless при промахе кэша, чистая функция от
// (конфигурация, снапшот контента, страница).
func (s *RenderService) RenderWidget(ctx context.Context, widgetID uuid.UUID, page int, search string) (*models.RenderedWidget, error) {
	const op = "render_service.RenderWidget"
	log := s.log.With(
		slog.String("op", op),
		slog.String("widget_id", widgetID.String()),
		slog.Int("page", page),
	)

	if page < 1 {
		page = 1
	}

	widget, err := s.widgets.GetWidgetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to load widget", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !widget.IsPublic {
		return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
	}

	if cached, err := s.cache.Get(ctx, widgetID, page, search); err == nil {
		metrics.RenderCacheHits.Inc()
		log.Debug("render served from cache")
		return cached, nil
	} else if !errors.Is(err, storage.ErrCacheMiss) {
		// кэш недоступен — рендерим напрямую
		log.Warn("render cache unavailable", sl.Err(err))
	}
	metrics.RenderCacheMisses.Inc()

	payload, err := s.renderFresh(ctx, log, widget, page, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, widgetID, page, search, payload, s.cacheTTL); err != nil {
		log.Warn("failed to store render in cache", sl.Err(err))
	}

	metrics.WidgetRendersTotal.WithLabelValues(string(widget.Type)).Inc()
	return payload, nil
}

func (s *RenderService) renderFresh(ctx context.Context, log *slog.Logger, widget *models.WidgetConfig, page int, search string) (*models.RenderedWidget, error) {
	snapshot, err := s.content.GetWebsiteContent(ctx, widget.WebsiteID)
	if err != nil {
		log.Error("failed to load content snapshot", sl.Err(err))
		return nil, err
	}

	matched := FilterContent(snapshot, widget.Filters)
	matched = SearchContent(matched, search)
	matched = SortContent(matched, widget.Filters.SortBy, widget.Filters.SortOrder)

	perPage := widget.Settings.PostsPerPage
	pageItems := Paginate(matched, page, perPage)

	payload, err := s.renderer.Render(*widget, pageItems, pageInfo{
		Page:       page,
		TotalPages: TotalPages(len(matched), perPage),
		TotalItems: len(matched),
		Search:     search,
	})
	if err != nil {
		log.Error("failed to render widget", sl.Err(err))
		return nil, err
	}

	return payload, nil
}

// ListContent serves the legacy api-key content feed used by older embed
// variants; it reuses the widget's filters but skips templating.
func (s *RenderService) ListContent(ctx context.Context, apiKey string, limit int) ([]dto.ContentItemResponse, error) {
	const op = "render_service.ListContent"
	log := s.log.With(slog.String("op", op))

	widget, err := s.widgets.GetWidgetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, storage.ErrWidgetNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrWidgetNotFound)
		}
		log.Error("failed to resolve api key", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snapshot, err := s.content.GetWebsiteContent(ctx, widget.WebsiteID)
	if err != nil {
		log.Error("failed to load content snapshot", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	matched := FilterContent(snapshot, widget.Filters)
	matched = SortContent(matched, widget.Filters.SortBy, widget.Filters.SortOrder)

	if limit < 1 || limit > 100 {
		limit = 10
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	items := make([]dto.ContentItemResponse, 0, len(matched))
	for _, item := range matched {
		items = append(items, dto.ContentItemResponse{
			ID:          item.ID,
			Title:       item.Title,
			Excerpt:     item.Excerpt,
			URL:         item.URL,
			ImageURL:    item.ImageURL,
			AuthorName:  item.AuthorName,
			PublishedAt: item.PublishedAt,
		})
	}

	return items, nil
}
