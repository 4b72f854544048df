package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"study-buddy-api/internal/application/ports"
	domain "study-buddy-api/internal/domain/membership"
	"study-buddy-api/internal/infrastructure/metrics"
)

// MembershipAuthority answers membership questions straight from the store; inactive rows never count.
type MembershipAuthority struct {
	membershipRepository domain.Repository
}

func NewMembershipAuthority(membershipRepository domain.Repository) *MembershipAuthority {
	return &MembershipAuthority{membershipRepository: membershipRepository}
}

func (ma *MembershipAuthority) IsActiveMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	m, err := ma.membershipRepository.FetchMembership(ctx, userID, groupID)
	if err != nil {
		return false, err
	}

	return m != nil && m.IsActive, nil
}

func (ma *MembershipAuthority) IsActiveMemberOfAny(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error) {
	return ma.membershipRepository.HasActiveMembership(ctx, userID, groupIDs)
}

func (ma *MembershipAuthority) RoleOf(ctx context.Context, userID, groupID uuid.UUID) (*domain.Role, error) {
	m, err := ma.membershipRepository.FetchMembership(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, nil
	}

	role := m.Role
	return &role, nil
}

type MembershipService struct {
	membershipRepository domain.Repository
	policy               *AccessPolicy
	logger               *zap.Logger
	mCounter             *prometheus.CounterVec
}

func NewMembershipService(
	membershipRepository domain.Repository,
	policy *AccessPolicy,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.MembershipService {
	return &MembershipService{
		membershipRepository: membershipRepository,
		policy:               policy,
		logger:               logger,
		mCounter:             mCounter,
	}
}

func (ms *MembershipService) FindMembers(
	ctx context.Context,
	requester *uuid.UUID,
	groupID uuid.UUID,
) (domain.Memberships, error) {
	if err := ms.policy.AuthorizeGroup(ctx, requester, GroupActionViewMembers, groupID); err != nil {
		return nil, err
	}

	return ms.membershipRepository.FetchGroupMemberships(ctx, groupID)
}

// AddMember is idempotent: an existing row is returned (and re-activated) instead of duplicated.
func (ms *MembershipService) AddMember(
	ctx context.Context,
	requester *uuid.UUID,
	groupID, userID uuid.UUID,
	role domain.Role,
) (*domain.Membership, error) {
	if err := ms.policy.AuthorizeGroup(ctx, requester, GroupActionManageMembers, groupID); err != nil {
		return nil, err
	}

	m, created, err := ms.membershipRepository.CreateMembership(ctx, domain.Membership{
		UserID:   userID,
		GroupID:  groupID,
		Role:     role,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if created {
		ms.mCounter.WithLabelValues(metrics.MembershipsCreated).Inc()
		return m, nil
	}

	if !m.IsActive {
		if err = ms.membershipRepository.SetActive(ctx, userID, groupID, true); err != nil {
			return nil, err
		}
		m.IsActive = true
		ms.logger.Info("membership re-activated",
			zap.String("group_id", groupID.String()),
			zap.String("user_id", userID.String()),
		)
	}

	return m, nil
}

func (ms *MembershipService) DeactivateMember(
	ctx context.Context,
	requester *uuid.UUID,
	groupID, userID uuid.UUID,
) error {
	if err := ms.policy.AuthorizeGroup(ctx, requester, GroupActionManageMembers, groupID); err != nil {
		return err
	}

	return ms.membershipRepository.SetActive(ctx, userID, groupID, false)
}
