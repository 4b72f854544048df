package resource

import "github.com/google/uuid"

// UpdateRequest carries the metadata fields a PATCH may change; absent fields stay untouched.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Visibility  *string `json:"visibility"`
	// Groups replaces the sharing scope; an empty list unshares.
	Groups *[]uuid.UUID `json:"groups"`
}
