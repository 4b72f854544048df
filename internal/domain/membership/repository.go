package membership

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	FetchMembership(ctx context.Context, userID, groupID uuid.UUID) (*Membership, error)
	FetchGroupMemberships(ctx context.Context, groupID uuid.UUID) (Memberships, error)
	HasActiveMembership(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error)
	// CreateMembership inserts the row unless (user, group) already exists; created reports which.
	CreateMembership(ctx context.Context, req Membership) (m *Membership, created bool, err error)
	SetActive(ctx context.Context, userID, groupID uuid.UUID, active bool) error
}
