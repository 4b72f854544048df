package resource

import (
	"time"

	domain "study-buddy-api/internal/domain/resource"
)

func fromDBModel(model *Resource) *domain.Resource {
	var r = &domain.Resource{
		UUID:    model.ID,
		OwnerID: model.OwnerID,

		Title:       model.Title,
		Description: model.Description,
		File: domain.FileRef{
			Key:  model.StorageKey,
			Name: model.FileName,
		},
		Category:      domain.Category(model.Category),
		SizeBytes:     model.SizeBytes,
		Visibility:    domain.Visibility(model.Visibility),
		DownloadCount: model.DownloadCount,

		GroupIDs:    model.GroupIDs,
		CategoryIDs: model.CategoryIDs,
		TagIDs:      model.TagIDs,

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	return r
}

func fromDBModels(models *Resources) domain.Resources {
	rs := make(domain.Resources, len(*models))
	for idx, r := range *models {
		rs[idx] = fromDBModel(r)
	}

	return rs
}

// filterArgs binds a filter to the $2..$11 placeholders of filterClause.
func filterArgs(f domain.Filter) []any {
	page := f.Page
	if page < 1 {
		page = 1
	}

	return []any{
		categoryArg(f.Category),
		f.OwnerID,
		visibilityArg(f.Visibility),
		toInt64(f.MinSize),
		toInt64(f.MaxSize),
		toTime(f.UploadedAfter),
		toTime(f.UploadedBefore),
		f.Title,
		f.Description,
		page,
	}
}

func toInt64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	i := int64(*v)
	return &i
}

func toTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func categoryArg(c *domain.Category) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func visibilityArg(v *domain.Visibility) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
