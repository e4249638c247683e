package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storyslip/internal/domain/models"
	"storyslip/internal/lib/logger/sl"
	"storyslip/internal/repository"
	"storyslip/internal/storage"

	"github.com/google/uuid"
)

// Outcome tags an authorization decision. A single Authorize call backs
// every mutating operation instead of per-handler role checks.
type Outcome int

const (
	Authorized Outcome = iota
	Denied
	NotAMember
)

type Decision struct {
	Outcome Outcome
	Role    models.Role
}

func (d Decision) Allowed() bool {
	return d.Outcome == Authorized
}

type Checker struct {
	log  *slog.Logger
	repo repository.MembershipRepository
}

func New(log *slog.Logger, repo repository.MembershipRepository) *Checker {
	return &Checker{log: log, repo: repo}
}

// Authorize resolves the requester's role on the website and checks it
// against the required set. An empty required set means any member passes.
func (c *Checker) Authorize(ctx context.Context, requesterID, websiteID uuid.UUID, required ...models.Role) (Decision, error) {
	const op = "access.Authorize"

	m, err := c.repo.GetMembership(ctx, requesterID, websiteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotAMember) {
			return Decision{Outcome: NotAMember}, nil
		}

		c.log.Error("failed to resolve membership", slog.String("op", op), sl.Err(err))
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(required) == 0 {
		return Decision{Outcome: Authorized, Role: m.Role}, nil
	}

	for _, role := range required {
		if m.Role == role {
			return Decision{Outcome: Authorized, Role: m.Role}, nil
		}
	}

	return Decision{Outcome: Denied, Role: m.Role}, nil
}
