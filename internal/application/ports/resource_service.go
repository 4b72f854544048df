package ports

import (
	"context"

	"github.com/google/uuid"

	"study-buddy-api/internal/domain/resource"
)

// ResourceService is the use-case surface for shared resources.
// A nil requester is an anonymous caller.
type ResourceService interface {
	FindResources(ctx context.Context, requester *uuid.UUID, f resource.Filter) (resource.Resources, error)
	FindMyResources(ctx context.Context, requester *uuid.UUID, f resource.Filter) (resource.Resources, error)
	FindResource(ctx context.Context, requester *uuid.UUID, id uuid.UUID) (*resource.Resource, error)
	CreateResource(ctx context.Context, requester *uuid.UUID, in resource.Upload) (*resource.Resource, error)
	UpdateResource(ctx context.Context, requester *uuid.UUID, id uuid.UUID, upd resource.MetadataUpdate) (*resource.Resource, error)
	ReplaceFile(ctx context.Context, requester *uuid.UUID, id uuid.UUID, file resource.FileUpload) (*resource.Resource, error)
	DeleteResource(ctx context.Context, requester *uuid.UUID, id uuid.UUID) error
	DownloadResource(ctx context.Context, requester *uuid.UUID, id uuid.UUID) (*resource.Download, error)
	FindCatalogCategories(ctx context.Context) (resource.CatalogCategories, error)
}
