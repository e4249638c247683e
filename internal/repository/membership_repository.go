package repository

import (
	"context"
	"errors"
	"fmt"

	"storyslip/internal/domain/models"
	"storyslip/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type MembershipRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *MembershipRepo) GetMembership(ctx context.Context, userID, websiteID uuid.UUID) (*models.Membership, error) {
	const op = "repository.membership_repository.GetMembership"

	query, args, err := r.sb.Select("user_id", "website_id", "role").
		From("website_members").
		Where(sq.Eq{"user_id": userID, "website_id": websiteID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var m models.Membership
	err = r.db.QueryRow(ctx, query, args...).Scan(&m.UserID, &m.WebsiteID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotAMember)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}
