package resource

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type (
	Visibility string

	// FileRef points at the stored blob. Name is the file name declared at upload.
	FileRef struct {
		Key  string
		Name string
	}

	Resource struct {
		UUID    uuid.UUID
		OwnerID *uuid.UUID

		Title       string
		Description string
		File        FileRef
		Category    Category
		SizeBytes   uint64
		Visibility  Visibility

		DownloadCount uint64

		GroupIDs    []uuid.UUID
		CategoryIDs []uuid.UUID
		TagIDs      []uuid.UUID

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Resources []*Resource

	FileUpload struct {
		Name string
		Data []byte
		// DeclaredSize is what the client claimed; stored sizes always come from Data.
		DeclaredSize int64
	}

	Upload struct {
		Title       string
		Description string
		Category    Category
		Visibility  Visibility
		GroupIDs    []uuid.UUID
		CategoryIDs []uuid.UUID
		TagIDs      []uuid.UUID
		File        FileUpload
	}

	// MetadataUpdate leaves nil fields untouched. GroupIDs replaces the sharing scope.
	MetadataUpdate struct {
		Title       *string
		Description *string
		Category    *Category
		Visibility  *Visibility
		GroupIDs    *[]uuid.UUID
	}

	Filter struct {
		Category       *Category
		OwnerID        *uuid.UUID
		Visibility     *Visibility
		MinSize        *uint64
		MaxSize        *uint64
		UploadedAfter  *time.Time
		UploadedBefore *time.Time
		Title          string
		Description    string
		Page           int
	}

	// CatalogCategory is a subject area resources link to through CategoryIDs.
	CatalogCategory struct {
		UUID        uuid.UUID
		Name        string
		Slug        string
		Description string
		Icon        string
	}
	CatalogCategories []*CatalogCategory

	Download struct {
		Resource    *Resource
		Content     io.ReadCloser
		ContentType string
	}
)

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

func (r *Resource) IsOwnedBy(userID *uuid.UUID) bool {
	return userID != nil && r.OwnerID != nil && *r.OwnerID == *userID
}
