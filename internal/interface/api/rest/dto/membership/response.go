package membership

import (
	"time"

	"github.com/google/uuid"
)

type (
	Membership struct {
		UserID   uuid.UUID `json:"user_id"`
		GroupID  uuid.UUID `json:"group_id"`
		Role     string    `json:"role"`
		IsActive bool      `json:"is_active"`
		JoinedAt time.Time `json:"joined_at"`
	}
	Memberships  []Membership
	ResponseData struct {
		Data Memberships `json:"data"`
	}

	Request struct {
		Role string `json:"role"`
	}
)
