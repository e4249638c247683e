package repository

import (
	"context"
	"fmt"
	"time"

	"storyslip/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type AnalyticsRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewAnalyticsRepository(db *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureDailyRecord lazily creates the zeroed aggregate row for the day.
func (r *AnalyticsRepo) EnsureDailyRecord(ctx context.Context, widgetID uuid.UUID, date time.Time) error {
	const op = "repository.analytics_repository.EnsureDailyRecord"

	query, args, err := r.sb.Insert("widget_analytics").
		Columns("widget_id", "date", "views", "clicks", "interactions").
		Values(widgetID, date.Format("2006-01-02"), 0, 0, 0).
		Suffix("ON CONFLICT (widget_id, date) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *AnalyticsRepo) IncrementEvent(ctx context.Context, widgetID uuid.UUID, date time.Time, eventType models.TrackingEventType) error {
	const op = "repository.analytics_repository.IncrementEvent"

	var column string
	switch eventType {
	case models.EventView:
		column = "views"
	case models.EventClick:
		column = "clicks"
	case models.EventInteraction:
		column = "interactions"
	default:
		return fmt.Errorf("%s: unknown event type '%s'", op, eventType)
	}

	query, args, err := r.sb.Insert("widget_analytics").
		Columns("widget_id", "date", column).
		Values(widgetID, date.Format("2006-01-02"), 1).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (widget_id, date) DO UPDATE SET %s = widget_analytics.%s + 1",
			column, column,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *AnalyticsRepo) GetRange(ctx context.Context, widgetID uuid.UUID, from, to time.Time) ([]models.WidgetAnalytics, error) {
	const op = "repository.analytics_repository.GetRange"

	query, args, err := r.sb.Select("widget_id", "date", "views", "clicks", "interactions").
		From("widget_analytics").
		Where(sq.Eq{"widget_id": widgetID}).
		Where(sq.GtOrEq{"date": from.Format("2006-01-02")}).
		Where(sq.LtOrEq{"date": to.Format("2006-01-02")}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []models.WidgetAnalytics
	for rows.Next() {
		var rec models.WidgetAnalytics
		if err := rows.Scan(&rec.WidgetID, &rec.Date, &rec.Views, &rec.Clicks, &rec.Interactions); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteWidgetAnalytics cascades with widget deletion.
func (r *AnalyticsRepo) DeleteWidgetAnalytics(ctx context.Context, widgetID uuid.UUID) error {
	const op = "repository.analytics_repository.DeleteWidgetAnalytics"

	query, args, err := r.sb.Delete("widget_analytics").
		Where(sq.Eq{"widget_id": widgetID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
