package membership

const (
	SelectMembership = `
		SELECT user_id, group_id, role, is_active, joined_at
		FROM group_memberships
		WHERE user_id = $1 AND group_id = $2
	`
	SelectGroupMemberships = `
		SELECT user_id, group_id, role, is_active, joined_at
		FROM group_memberships
		WHERE group_id = $1 AND is_active
		ORDER BY joined_at DESC
	`
	SelectHasActiveMembership = `
		SELECT EXISTS (
			SELECT 1
			FROM group_memberships
			WHERE user_id = $1 AND group_id = ANY($2::uuid[]) AND is_active
		)
	`
	// the (user_id, group_id) primary key absorbs duplicates; no row comes back on conflict
	InsertMembership = `
		INSERT INTO group_memberships (user_id, group_id, role, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, group_id) DO NOTHING
		RETURNING user_id, group_id, role, is_active, joined_at
	`
	UpdateMembershipActive = `
		UPDATE group_memberships
		SET is_active = $3
		WHERE user_id = $1 AND group_id = $2
	`
)
