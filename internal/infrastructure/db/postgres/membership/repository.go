package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"study-buddy-api/internal/domain/membership"
	"study-buddy-api/internal/infrastructure/db/postgres"
	"study-buddy-api/pkg/apperrors"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) membership.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchMembership(ctx context.Context, userID, groupID uuid.UUID) (*membership.Membership, error) {
	m := new(Membership)
	err := r.db.QueryRow(ctx, SelectMembership, userID, groupID).Scan(
		&m.UserID,
		&m.GroupID,
		&m.Role,
		&m.IsActive,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func (r *Repository) FetchGroupMemberships(ctx context.Context, groupID uuid.UUID) (membership.Memberships, error) {
	rows, err := r.db.Query(ctx, SelectGroupMemberships, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms Memberships
	for rows.Next() {
		m := new(Membership)
		if err = rows.Scan(
			&m.UserID,
			&m.GroupID,
			&m.Role,
			&m.IsActive,
			&m.JoinedAt,
		); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&ms), nil
}

func (r *Repository) HasActiveMembership(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}

	var ok bool
	if err := r.db.QueryRow(ctx, SelectHasActiveMembership, userID, groupIDs).Scan(&ok); err != nil {
		return false, err
	}

	return ok, nil
}

func (r *Repository) CreateMembership(ctx context.Context, req membership.Membership) (*membership.Membership, bool, error) {
	m := new(Membership)
	err := r.db.QueryRow(
		ctx,
		InsertMembership,
		req.UserID, req.GroupID, string(req.Role), req.IsActive,
	).Scan(
		&m.UserID,
		&m.GroupID,
		&m.Role,
		&m.IsActive,
		&m.JoinedAt,
	)
	if err == nil {
		return fromDBModel(m), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !postgres.IsPgUniqueViolation(err) {
		return nil, false, err
	}

	existing, err := r.FetchMembership(ctx, req.UserID, req.GroupID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("membership %s/%s vanished after conflict", req.UserID, req.GroupID)
	}

	return existing, false, nil
}

func (r *Repository) SetActive(ctx context.Context, userID, groupID uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, UpdateMembershipActive, userID, groupID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", userID, groupID, apperrors.ErrNotFound)
	}

	return nil
}
