package domain

import (
	"strings"
	"time"
)

// Board groups tasks under a single owner fixed at creation.
type Board struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `json:"tasks"`
}

// BoardInput carries the user-editable fields of a board. Updates replace both.
type BoardInput struct {
	Title       string
	Description string
}

func (in BoardInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "field required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description", "field required")
	}
	return nil
}

// ListOptions is the limit/offset/search triple shared by list operations.
// Search is a case-sensitive substring; empty matches everything.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

func (o ListOptions) Validate() error {
	if o.Limit < 0 {
		return invalid("limit", "must be greater than or equal to 0")
	}
	if o.Offset < 0 {
		return invalid("skip", "must be greater than or equal to 0")
	}
	return nil
}
