package resource

import (
	"time"

	"github.com/google/uuid"
)

type (
	Resource struct {
		UUID          uuid.UUID   `json:"uuid"`
		OwnerID       *uuid.UUID  `json:"uploaded_by"`
		Title         string      `json:"title"`
		Description   string      `json:"description"`
		FileName      string      `json:"file_name"`
		FileExtension string      `json:"file_extension"`
		Category      string      `json:"category"`
		SizeBytes     uint64      `json:"file_size"`
		FormattedSize string      `json:"formatted_size"`
		Visibility    string      `json:"visibility"`
		DownloadCount uint64      `json:"download_count"`
		GroupIDs      []uuid.UUID `json:"groups"`
		CategoryIDs   []uuid.UUID `json:"categories"`
		TagIDs        []uuid.UUID `json:"tags"`
		IsOwner       bool        `json:"is_owner"`
		CreatedAt     time.Time   `json:"created_at"`
		UpdatedAt     time.Time   `json:"updated_at"`
	}
	Resources    []Resource
	ResponseData struct {
		Data Resources `json:"data"`
	}

	Types struct {
		Data map[string][]string `json:"data"`
	}

	CatalogCategory struct {
		UUID        uuid.UUID `json:"uuid"`
		Name        string    `json:"name"`
		Slug        string    `json:"slug"`
		Description string    `json:"description"`
		Icon        string    `json:"icon"`
	}
	CatalogResponse struct {
		Data []CatalogCategory `json:"data"`
	}
)
