package resource

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	FetchResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	FetchVisibleResources(ctx context.Context, viewerID *uuid.UUID, f Filter) (Resources, error)
	FetchOwnerResources(ctx context.Context, ownerID uuid.UUID, f Filter) (Resources, error)
	CreateResource(ctx context.Context, req *Resource) (*Resource, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, upd MetadataUpdate) (*Resource, error)
	UpdateFile(ctx context.Context, id uuid.UUID, file FileRef, sizeBytes uint64, category Category) (*Resource, error)
	DeleteResource(ctx context.Context, id uuid.UUID) error
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) (uint64, error)
	FetchCatalogCategories(ctx context.Context) (CatalogCategories, error)
}
