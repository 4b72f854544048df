package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"study-buddy-api/internal/application/ports"
	"study-buddy-api/internal/domain/resource"
	"study-buddy-api/pkg/apperrors"
)

type (
	Action      string
	GroupAction string
)

const (
	ActionRead        Action = "read"
	ActionDownload    Action = "download"
	ActionUpdate      Action = "update"
	ActionReplaceFile Action = "replace_file"
	ActionDelete      Action = "delete"

	GroupActionViewMembers   GroupAction = "view_members"
	GroupActionManageMembers GroupAction = "manage_members"
)

// AccessPolicy is the single place where resource and group permissions are decided.
type AccessPolicy struct {
	members ports.MembershipAuthority
}

func NewAccessPolicy(members ports.MembershipAuthority) *AccessPolicy {
	return &AccessPolicy{members: members}
}

// CanRead: PUBLIC, the owner, or an active member of any group the resource is shared with.
func (p *AccessPolicy) CanRead(ctx context.Context, requester *uuid.UUID, r *resource.Resource) (bool, error) {
	if r.Visibility == resource.VisibilityPublic {
		return true, nil
	}
	if requester == nil {
		return false, nil
	}
	if r.IsOwnedBy(requester) {
		return true, nil
	}
	if len(r.GroupIDs) == 0 {
		return false, nil
	}

	return p.members.IsActiveMemberOfAny(ctx, *requester, r.GroupIDs)
}

// Authorize returns nil when requester may perform action on r.
// A requester who cannot read r gets ErrNotFound whatever the action, so private resources stay hidden.
func (p *AccessPolicy) Authorize(
	ctx context.Context,
	requester *uuid.UUID,
	action Action,
	r *resource.Resource,
) error {
	readable, err := p.CanRead(ctx, requester, r)
	if err != nil {
		return err
	}
	if !readable {
		return fmt.Errorf("resource %s: %w", r.UUID, apperrors.ErrNotFound)
	}

	switch action {
	case ActionRead, ActionDownload:
		return nil
	case ActionUpdate, ActionReplaceFile, ActionDelete:
		if requester == nil {
			return apperrors.ErrUnauthenticated
		}
		if r.IsOwnedBy(requester) {
			return nil
		}
		return fmt.Errorf("%s resource %s: only the owner may do this: %w", action, r.UUID, apperrors.ErrPermission)
	}

	return fmt.Errorf("unknown action %q: %w", action, apperrors.ErrPermission)
}

// CheckCreate requires an authenticated requester who is an active member of every target group.
// Re-sharing an existing resource goes through the same check.
func (p *AccessPolicy) CheckCreate(ctx context.Context, requester *uuid.UUID, groupIDs []uuid.UUID) error {
	if requester == nil {
		return apperrors.ErrUnauthenticated
	}
	for _, g := range groupIDs {
		ok, err := p.members.IsActiveMember(ctx, *requester, g)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Validation("groups", "you are not an active member of group %s", g)
		}
	}

	return nil
}

// AuthorizeGroup: viewing members needs an active membership, managing them needs ADMIN or MODERATOR.
func (p *AccessPolicy) AuthorizeGroup(
	ctx context.Context,
	requester *uuid.UUID,
	action GroupAction,
	groupID uuid.UUID,
) error {
	if requester == nil {
		return apperrors.ErrUnauthenticated
	}

	role, err := p.members.RoleOf(ctx, *requester, groupID)
	if err != nil {
		return err
	}
	if role == nil {
		return fmt.Errorf("group %s: not an active member: %w", groupID, apperrors.ErrPermission)
	}

	switch action {
	case GroupActionViewMembers:
		return nil
	case GroupActionManageMembers:
		if role.CanManageMembers() {
			return nil
		}
		return fmt.Errorf("group %s: role %s cannot manage members: %w", groupID, *role, apperrors.ErrPermission)
	}

	return fmt.Errorf("unknown group action %q: %w", action, apperrors.ErrPermission)
}
