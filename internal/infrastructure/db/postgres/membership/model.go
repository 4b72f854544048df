package membership

import (
	"time"

	"github.com/google/uuid"
)

type (
	Membership struct {
		UserID   uuid.UUID
		GroupID  uuid.UUID
		Role     string
		IsActive bool
		JoinedAt time.Time
	}
	Memberships []*Membership
)
