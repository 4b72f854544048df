package membership

import (
	"study-buddy-api/internal/domain/membership"
)

func ToResponseMembership(m membership.Membership) Membership {
	return Membership{
		UserID:   m.UserID,
		GroupID:  m.GroupID,
		Role:     string(m.Role),
		IsActive: m.IsActive,
		JoinedAt: m.JoinedAt,
	}
}

func ToResponseMemberships(ms membership.Memberships) Memberships {
	out := make(Memberships, len(ms))
	for idx, m := range ms {
		out[idx] = ToResponseMembership(*m)
	}

	return out
}
