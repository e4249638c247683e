package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type WidgetRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewWidgetRepository(db *pgxpool.Pool) *WidgetRepo {
	return &WidgetRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var widgetColumns = []string{
	"id", "website_id", "name", "type", "layout", "theme",
	"settings", "content_filters", "styling",
	"is_public", "api_key", "embed_code", "preview_url",
	"created_at", "updated_at",
}

func (r *WidgetRepo) SaveWidget(ctx context.Context, widget models.WidgetConfig) (uuid.UUID, error) {
	const op = "repository.widget_repository.SaveWidget"

	settings, filters, styling, err := marshalWidgetDocs(widget)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Insert("widgets").
		Columns(
			"id",
			"website_id",
			"name",
			"type",
			"layout",
			"theme",
			"settings",
			"content_filters",
			"styling",
			"is_public",
			"api_key",
			"embed_code",
			"preview_url",
		).
		Values(
			widget.ID,
			widget.WebsiteID,
			widget.Name,
			widget.Type,
			widget.Layout,
			widget.Theme,
			settings,
			filters,
			styling,
			widget.IsPublic,
			widget.APIKey,
			widget.EmbedCode,
			widget.PreviewURL,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *WidgetRepo) GetWidgetByID(ctx context.Context, widgetID uuid.UUID) (*models.WidgetConfig, error) {
	const op = "repository.widget_repository.GetWidgetByID"

	return r.getWidget(ctx, op, sq.Eq{"id": widgetID})
}

func (r *WidgetRepo) GetWidgetByAPIKey(ctx context.Context, apiKey string) (*models.WidgetConfig, error) {
	const op = "repository.widget_repository.GetWidgetByAPIKey"

	return r.getWidget(ctx, op, sq.Eq{"api_key": apiKey})
}

func (r *WidgetRepo) getWidget(ctx context.Context, op string, where sq.Eq) (*models.WidgetConfig, error) {
	query, args, err := r.sb.Select(widgetColumns...).
		From("widgets").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	widget, err := scanWidget(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrWidgetNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return widget, nil
}

func (r *WidgetRepo) UpdateWidgetFields(ctx context.Context, widgetID uuid.UUID, updates map[string]interface{}) error {
	const op = "repository.widget_repository.UpdateWidgetFields"

	allowedFields := map[string]bool{
		"name":            true,
		"type":            true,
		"layout":          true,
		"theme":           true,
		"settings":        true,
		"content_filters": true,
		"styling":         true,
		"is_public":       true,
		"embed_code":      true,
		"preview_url":     true,
	}

	if len(updates) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}

	updateBuilder := r.sb.Update("widgets").
		Set("updated_at", time.Now())

	for field, value := range updates {
		if !allowedFields[field] {
			return fmt.Errorf("%s: field '%s' is not allowed for update", op, field)
		}

		updateBuilder = updateBuilder.Set(field, value)
	}

	updateBuilder = updateBuilder.Where(sq.Eq{"id": widgetID})

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrWidgetNotFound)
	}

	return nil
}

// DeleteWidget removes the configuration row. Analytics rows cascade via
// the analytics repository in the service layer. Repeated deletes surface
// ErrWidgetNotFound.
func (r *WidgetRepo) DeleteWidget(ctx context.Context, widgetID uuid.UUID) error {
	const op = "repository.widget_repository.DeleteWidget"

	query, args, err := r.sb.Delete("widgets").
		Where(sq.Eq{"id": widgetID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrWidgetNotFound)
	}

	return nil
}

func (r *WidgetRepo) ListWidgets(ctx context.Context, websiteID uuid.UUID, page, perPage int) ([]models.WidgetConfig, int, error) {
	const op = "repository.widget_repository.ListWidgets"

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	totalCount, err := r.countWidgets(ctx, websiteID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Select(widgetColumns...).
		From("widgets").
		Where(sq.Eq{"website_id": websiteID}).
		OrderBy("created_at DESC").
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var widgets []models.WidgetConfig
	for rows.Next() {
		widget, err := scanWidget(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		widgets = append(widgets, *widget)
	}

	return widgets, totalCount, nil
}

func (r *WidgetRepo) countWidgets(ctx context.Context, websiteID uuid.UUID) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("widgets").
		Where(sq.Eq{"website_id": websiteID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error build query: %w", err)
	}

	var count int
	err = r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("error execute query: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWidget(row rowScanner) (*models.WidgetConfig, error) {
	var (
		widget   models.WidgetConfig
		settings []byte
		filters  []byte
		styling  []byte
	)

	err := row.Scan(
		&widget.ID,
		&widget.WebsiteID,
		&widget.Name,
		&widget.Type,
		&widget.Layout,
		&widget.Theme,
		&settings,
		&filters,
		&styling,
		&widget.IsPublic,
		&widget.APIKey,
		&widget.EmbedCode,
		&widget.PreviewURL,
		&widget.CreatedAt,
		&widget.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(settings, &widget.Settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := json.Unmarshal(filters, &widget.Filters); err != nil {
		return nil, fmt.Errorf("unmarshal content_filters: %w", err)
	}
	if err := json.Unmarshal(styling, &widget.Styling); err != nil {
		return nil, fmt.Errorf("unmarshal styling: %w", err)
	}

	return &widget, nil
}

// Настройки, фильтры и стили хранятся в jsonb колонках.
func marshalWidgetDocs(widget models.WidgetConfig) ([]byte, []byte, []byte, error) {
	settings, err := json.Marshal(widget.Settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	filters, err := json.Marshal(widget.Filters)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal content_filters: %w", err)
	}
	styling, err := json.Marshal(widget.Styling)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal styling: %w", err)
	}
	return settings, filters, styling, nil
}
