package resource

const (
	resourceColumns = `
		r.id, r.owner_id, r.title, r.description, r.storage_key, r.file_name, r.category,
		r.size_bytes, r.visibility, r.download_count, r.created_at, r.updated_at,
		ARRAY(SELECT rg.group_id FROM resource_groups rg WHERE rg.resource_id = r.id),
		ARRAY(SELECT rc.category_id FROM resource_categories rc WHERE rc.resource_id = r.id),
		ARRAY(SELECT rt.tag_id FROM resource_tags rt WHERE rt.resource_id = r.id)
	`
	filterClause = `
		AND ($2::text IS NULL OR r.category = $2)
		AND ($3::uuid IS NULL OR r.owner_id = $3)
		AND ($4::text IS NULL OR r.visibility = $4)
		AND ($5::bigint IS NULL OR r.size_bytes >= $5)
		AND ($6::bigint IS NULL OR r.size_bytes <= $6)
		AND ($7::timestamptz IS NULL OR r.created_at >= $7)
		AND ($8::timestamptz IS NULL OR r.created_at < $8)
		AND ($9 = '' OR r.title ILIKE '%' || $9 || '%')
		AND ($10 = '' OR r.description ILIKE '%' || $10 || '%')
		ORDER BY r.created_at DESC
		LIMIT 50 OFFSET ( ($11 - 1) * 50 )
	`

	SelectResourceByID = `SELECT ` + resourceColumns + ` FROM resources r WHERE r.id = $1`

	SelectVisibleResources = `
		SELECT ` + resourceColumns + `
		FROM resources r
		WHERE (
			r.visibility = 'PUBLIC'
			OR r.owner_id = $1::uuid
			OR EXISTS (
				SELECT 1
				FROM resource_groups rg
				JOIN group_memberships gm ON gm.group_id = rg.group_id
				WHERE rg.resource_id = r.id AND gm.user_id = $1::uuid AND gm.is_active
			)
		)
	` + filterClause

	SelectOwnerResources = `
		SELECT ` + resourceColumns + `
		FROM resources r
		WHERE r.owner_id = $1::uuid
	` + filterClause

	InsertResource = `
		INSERT INTO resources (id, owner_id, title, description, storage_key, file_name, category, size_bytes, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING download_count, created_at, updated_at
	`
	InsertResourceGroups = `
		INSERT INTO resource_groups (resource_id, group_id)
		SELECT DISTINCT $1::uuid, id FROM unnest($2::uuid[]) AS id
		ON CONFLICT DO NOTHING
	`
	InsertResourceCategories = `
		INSERT INTO resource_categories (resource_id, category_id)
		SELECT DISTINCT $1::uuid, id FROM unnest($2::uuid[]) AS id
		ON CONFLICT DO NOTHING
	`
	InsertResourceTags = `
		INSERT INTO resource_tags (resource_id, tag_id)
		SELECT DISTINCT $1::uuid, id FROM unnest($2::uuid[]) AS id
		ON CONFLICT DO NOTHING
	`
	DeleteResourceGroups = `DELETE FROM resource_groups WHERE resource_id = $1`

	SelectCatalogCategories = `SELECT id, name, slug, description, icon FROM categories ORDER BY name`

	UpdateResourceMetadata = `
		UPDATE resources AS r
		SET title = COALESCE($2, r.title),
		    description = COALESCE($3, r.description),
		    category = COALESCE($4, r.category),
		    visibility = COALESCE($5, r.visibility),
		    updated_at = now()
		WHERE r.id = $1
		RETURNING ` + resourceColumns

	UpdateResourceFile = `
		UPDATE resources AS r
		SET storage_key = $2,
		    file_name = $3,
		    size_bytes = $4,
		    category = $5,
		    updated_at = now()
		WHERE r.id = $1
		RETURNING ` + resourceColumns

	DeleteResourceByID = `DELETE FROM resources WHERE id = $1`

	IncrementDownloadCount = `
		UPDATE resources
		SET download_count = download_count + 1
		WHERE id = $1
		RETURNING download_count
	`
)
