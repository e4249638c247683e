package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"storyslip/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type ContentRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewContentRepository(db *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ContentRepo) GetWebsiteContent(ctx context.Context, websiteID uuid.UUID) ([]models.ContentItem, error) {
	const op = "repository.content_repository.GetWebsiteContent"

	query, args, err := r.sb.Select(
		"id", "website_id", "title", "slug", "excerpt", "url", "image_url",
		"author_id", "author_name", "category_ids", "category_names", "tag_ids",
		"status", "is_featured", "view_count", "published_at",
	).
		From("content_items").
		Where(sq.Eq{"website_id": websiteID}).
		OrderBy("published_at DESC NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		var (
			item          models.ContentItem
			categoryIDs   []byte
			categoryNames []byte
			tagIDs        []byte
		)

		err := rows.Scan(
			&item.ID,
			&item.WebsiteID,
			&item.Title,
			&item.Slug,
			&item.Excerpt,
			&item.URL,
			&item.ImageURL,
			&item.AuthorID,
			&item.AuthorName,
			&categoryIDs,
			&categoryNames,
			&tagIDs,
			&item.Status,
			&item.IsFeatured,
			&item.ViewCount,
			&item.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if len(categoryIDs) > 0 {
			if err := json.Unmarshal(categoryIDs, &item.CategoryIDs); err != nil {
				return nil, fmt.Errorf("%s: unmarshal category_ids: %w", op, err)
			}
		}
		if len(categoryNames) > 0 {
			if err := json.Unmarshal(categoryNames, &item.CategoryNames); err != nil {
				return nil, fmt.Errorf("%s: unmarshal category_names: %w", op, err)
			}
		}
		if len(tagIDs) > 0 {
			if err := json.Unmarshal(tagIDs, &item.TagIDs); err != nil {
				return nil, fmt.Errorf("%s: unmarshal tag_ids: %w", op, err)
			}
		}

		items = append(items, item)
	}

	return items, nil
}
