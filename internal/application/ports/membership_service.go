package ports

import (
	"context"

	"github.com/google/uuid"

	"study-buddy-api/internal/domain/membership"
)

// MembershipAuthority answers the read-only membership questions the access policy asks.
type MembershipAuthority interface {
	IsActiveMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
	IsActiveMemberOfAny(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error)
	RoleOf(ctx context.Context, userID, groupID uuid.UUID) (*membership.Role, error)
}

type MembershipService interface {
	FindMembers(ctx context.Context, requester *uuid.UUID, groupID uuid.UUID) (membership.Memberships, error)
	AddMember(ctx context.Context, requester *uuid.UUID, groupID, userID uuid.UUID, role membership.Role) (*membership.Membership, error)
	DeactivateMember(ctx context.Context, requester *uuid.UUID, groupID, userID uuid.UUID) error
}
