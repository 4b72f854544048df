package resource

import (
	"time"

	"github.com/google/uuid"
)

type (
	Resource struct {
		ID      uuid.UUID
		OwnerID *uuid.UUID

		Title         string
		Description   string
		StorageKey    string
		FileName      string
		Category      string
		SizeBytes     uint64
		Visibility    string
		DownloadCount uint64

		CreatedAt time.Time
		UpdatedAt time.Time

		GroupIDs    []uuid.UUID
		CategoryIDs []uuid.UUID
		TagIDs      []uuid.UUID
	}
	Resources []*Resource
)

func (m *Resource) scanTargets() []any {
	return []any{
		&m.ID,
		&m.OwnerID,

		&m.Title,
		&m.Description,
		&m.StorageKey,
		&m.FileName,
		&m.Category,
		&m.SizeBytes,
		&m.Visibility,
		&m.DownloadCount,

		&m.CreatedAt,
		&m.UpdatedAt,

		&m.GroupIDs,
		&m.CategoryIDs,
		&m.TagIDs,
	}
}
