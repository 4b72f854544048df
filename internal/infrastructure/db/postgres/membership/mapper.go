package membership

import (
	domain "study-buddy-api/internal/domain/membership"
)

func fromDBModel(model *Membership) *domain.Membership {
	return &domain.Membership{
		UserID:   model.UserID,
		GroupID:  model.GroupID,
		Role:     domain.Role(model.Role),
		IsActive: model.IsActive,
		JoinedAt: model.JoinedAt,
	}
}

func fromDBModels(models *Memberships) domain.Memberships {
	ms := make(domain.Memberships, len(*models))
	for idx, m := range *models {
		ms[idx] = fromDBModel(m)
	}

	return ms
}
