package membership

import (
	"time"

	"github.com/google/uuid"
)

type (
	Role string

	Membership struct {
		UserID   uuid.UUID
		GroupID  uuid.UUID
		Role     Role
		IsActive bool
		JoinedAt time.Time
	}
	Memberships []*Membership
)

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleMember    Role = "MEMBER"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleModerator, RoleMember:
		return r, true
	case "":
		return RoleMember, true
	}
	return "", false
}

// CanManageMembers reports whether the role may add or deactivate members.
func (r Role) CanManageMembers() bool {
	return r == RoleAdmin || r == RoleModerator
}
