package validator

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-buddy-api/internal/domain/resource"
)

const (
	dateLayout = "2006-01-02"
	// MaxPage keeps the list OFFSET inside int4.
	MaxPage = 1_000_000
)

func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}

	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return 0, errors.New("invalid page")
	}
	if p > MaxPage {
		return 0, errors.New("page out of range")
	}

	return p, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

// ParseUUIDList accepts repeated values and comma separated lists alike. Repeats are dropped, first occurrence wins.
func ParseUUIDList(values []string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ok, id := IsUUID(part)
			if !ok {
				return nil, false
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids, true
}

// ParseResourceFilter reads the list query string. Dates are whole days: uploaded_before includes that day.
func ParseResourceFilter(q url.Values) (resource.Filter, map[string]string) {
	errs := make(map[string]string)
	var f resource.Filter

	page, err := ValidatePage(q.Get("page"))
	if err != nil {
		errs["page"] = "must be an integer between 1 and " + strconv.Itoa(MaxPage)
	}
	f.Page = page

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		if c, ok := resource.ParseCategory(v); ok {
			f.Category = &c
		} else {
			errs["category"] = "unknown resource type"
		}
	}

	if v := strings.TrimSpace(q.Get("uploaded_by")); v != "" {
		if ok, id := IsUUID(v); ok {
			f.OwnerID = &id
		} else {
			errs["uploaded_by"] = "must be a valid UUID"
		}
	}

	if v := strings.TrimSpace(q.Get("visibility")); v != "" {
		vis := resource.Visibility(strings.ToUpper(v))
		if vis.Valid() {
			f.Visibility = &vis
		} else {
			errs["visibility"] = "must be PUBLIC or PRIVATE"
		}
	}

	for _, p := range []struct {
		key string
		dst **uint64
	}{
		{"min_size", &f.MinSize},
		{"max_size", &f.MaxSize},
	} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 63)
		if err != nil {
			errs[p.key] = "must be a non-negative integer"
			continue
		}
		*p.dst = &n
	}

	for _, p := range []struct {
		key   string
		dst   **time.Time
		shift time.Duration
	}{
		{"uploaded_after", &f.UploadedAfter, 0},
		{"uploaded_before", &f.UploadedBefore, 24 * time.Hour},
	} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			errs[p.key] = "must be YYYY-MM-DD"
			continue
		}
		d = d.Add(p.shift)
		*p.dst = &d
	}

	f.Title = strings.TrimSpace(q.Get("title"))
	f.Description = strings.TrimSpace(q.Get("description"))

	if len(errs) == 0 {
		return f, nil
	}

	return f, errs
}
