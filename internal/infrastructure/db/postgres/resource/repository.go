package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/infrastructure/db/postgres"
	"study-buddy-api/pkg/apperrors"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) resource.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchResource(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	m := new(Resource)
	if err := r.db.QueryRow(ctx, SelectResourceByID, id).Scan(m.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func (r *Repository) FetchVisibleResources(
	ctx context.Context,
	viewerID *uuid.UUID,
	f resource.Filter,
) (resource.Resources, error) {
	return r.fetchMany(ctx, SelectVisibleResources, viewerID, f)
}

func (r *Repository) FetchOwnerResources(
	ctx context.Context,
	ownerID uuid.UUID,
	f resource.Filter,
) (resource.Resources, error) {
	return r.fetchMany(ctx, SelectOwnerResources, ownerID, f)
}

func (r *Repository) fetchMany(ctx context.Context, query string, first any, f resource.Filter) (resource.Resources, error) {
	args := append([]any{first}, filterArgs(f)...)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms Resources
	for rows.Next() {
		m := new(Resource)
		if err = rows.Scan(m.scanTargets()...); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&ms), nil
}

// CreateResource inserts the row and its group, category and tag links in one transaction.
func (r *Repository) CreateResource(ctx context.Context, req *resource.Resource) (*resource.Resource, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	out := *req
	err = tx.QueryRow(
		ctx,
		InsertResource,
		req.UUID, req.OwnerID, req.Title, req.Description, req.File.Key, req.File.Name,
		string(req.Category), req.SizeBytes, string(req.Visibility),
	).Scan(
		&out.DownloadCount,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	links := []struct {
		field string
		query string
		ids   []uuid.UUID
	}{
		{"groups", InsertResourceGroups, req.GroupIDs},
		{"categories", InsertResourceCategories, req.CategoryIDs},
		{"tags", InsertResourceTags, req.TagIDs},
	}
	for _, l := range links {
		if len(l.ids) == 0 {
			continue
		}
		if _, err = tx.Exec(ctx, l.query, req.UUID, l.ids); err != nil {
			_ = tx.Rollback(ctx)
			return nil, linkError(l.field, req.UUID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateMetadata replaces the group links first when GroupIDs is set, so the returned row already carries them.
func (r *Repository) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	upd resource.MetadataUpdate,
) (*resource.Resource, error) {
	if upd.GroupIDs == nil {
		return updateMetadata(ctx, r.db, id, upd)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err = tx.Exec(ctx, DeleteResourceGroups, id); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if len(*upd.GroupIDs) > 0 {
		if _, err = tx.Exec(ctx, InsertResourceGroups, id, *upd.GroupIDs); err != nil {
			_ = tx.Rollback(ctx)
			return nil, linkError("groups", id, err)
		}
	}

	out, err := updateMetadata(ctx, tx, id, upd)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return out, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateMetadata(ctx context.Context, q rowQuerier, id uuid.UUID, upd resource.MetadataUpdate) (*resource.Resource, error) {
	m := new(Resource)
	err := q.QueryRow(
		ctx,
		UpdateResourceMetadata,
		id, upd.Title, upd.Description, categoryArg(upd.Category), visibilityArg(upd.Visibility),
	).Scan(m.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func (r *Repository) UpdateFile(
	ctx context.Context,
	id uuid.UUID,
	file resource.FileRef,
	sizeBytes uint64,
	category resource.Category,
) (*resource.Resource, error) {
	m := new(Resource)
	err := r.db.QueryRow(
		ctx,
		UpdateResourceFile,
		id, file.Key, file.Name, sizeBytes, string(category),
	).Scan(m.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}

	return fromDBModel(m), nil
}

func (r *Repository) DeleteResource(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, DeleteResourceByID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}

	return nil
}

// IncrementDownloadCount bumps the counter in a single statement so concurrent downloads never lose updates.
func (r *Repository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) (uint64, error) {
	var count uint64
	if err := r.db.QueryRow(ctx, IncrementDownloadCount, id).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound(id)
		}
		return 0, err
	}

	return count, nil
}

func (r *Repository) FetchCatalogCategories(ctx context.Context) (resource.CatalogCategories, error) {
	rows, err := r.db.Query(ctx, SelectCatalogCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out resource.CatalogCategories
	for rows.Next() {
		c := new(resource.CatalogCategory)
		if err = rows.Scan(&c.UUID, &c.Name, &c.Slug, &c.Description, &c.Icon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// linkError maps a foreign key violation on a link insert. Group links only reference the
// resource row, so theirs means the resource is gone; category and tag links also reference the catalog.
func linkError(field string, id uuid.UUID, err error) error {
	if !postgres.IsPgForeignKeyViolation(err) {
		return err
	}
	if field == "groups" {
		return notFound(id)
	}

	return apperrors.Validation(field, "contains an unknown id")
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
}
