package resource

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "study-buddy-api/internal/domain/resource"
)

var sizeUnits = []string{"bytes", "KB", "MB", "GB", "TB", "PB"}

func ToResponseResource(r domain.Resource, viewerID *uuid.UUID) Resource {
	return Resource{
		UUID:          r.UUID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		FileName:      r.File.Name,
		FileExtension: strings.ToUpper(domain.Extension(r.File.Name)),
		Category:      string(r.Category),
		SizeBytes:     r.SizeBytes,
		FormattedSize: FormatSize(r.SizeBytes),
		Visibility:    string(r.Visibility),
		DownloadCount: r.DownloadCount,
		GroupIDs:      nonNil(r.GroupIDs),
		CategoryIDs:   nonNil(r.CategoryIDs),
		TagIDs:        nonNil(r.TagIDs),
		IsOwner:       r.IsOwnedBy(viewerID),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func ToResponseResources(rs domain.Resources, viewerID *uuid.UUID) Resources {
	out := make(Resources, len(rs))
	for idx, r := range rs {
		out[idx] = ToResponseResource(*r, viewerID)
	}

	return out
}

func ToResponseTypes() Types {
	data := make(map[string][]string, len(domain.Categories))
	for c, exts := range domain.Extensions() {
		data[string(c)] = exts
	}

	return Types{Data: data}
}

func ToResponseCatalog(cs domain.CatalogCategories) CatalogResponse {
	out := make([]CatalogCategory, len(cs))
	for idx, c := range cs {
		out[idx] = CatalogCategory{
			UUID:        c.UUID,
			Name:        c.Name,
			Slug:        c.Slug,
			Description: c.Description,
			Icon:        c.Icon,
		}
	}

	return CatalogResponse{Data: out}
}

// FormatSize renders n bytes in 1024 steps, e.g. 2048 -> "2.0 KB".
func FormatSize(n uint64) string {
	if n == 0 {
		return "0 bytes"
	}

	size := float64(n)
	for _, unit := range sizeUnits[:len(sizeUnits)-1] {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}

	return fmt.Sprintf("%.1f %s", size, sizeUnits[len(sizeUnits)-1])
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func ToDomainUpdate(req UpdateRequest) domain.MetadataUpdate {
	upd := domain.MetadataUpdate{
		Title:       req.Title,
		Description: req.Description,
		GroupIDs:    req.Groups,
	}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		upd.Category = &c
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		upd.Visibility = &v
	}

	return upd
}
