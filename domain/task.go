package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultDescription is stored when a task is created without a description.
	DefaultDescription = "No description provided"

	maxTitleLen       = 255
	maxDescriptionLen = 1000
)

// Status is a flat enum; any value may move to any other.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task belongs to exactly one board; its owner is the board's owner.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	Tags        string    `json:"tags"`
	BoardID     int64     `json:"board_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskInput is the payload of a task creation. Nil fields take their defaults.
type TaskInput struct {
	Title       string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     string
	Tags        *string
}

func (in TaskInput) Validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return err
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return invalid("status", "must be one of 'To Do', 'In Progress', 'Done'")
	}
	if in.Priority != nil && *in.Priority != "" && !in.Priority.Valid() {
		return invalid("priority", "must be one of 'High', 'Medium', 'Low'")
	}
	return nil
}

// NewTask builds the record to insert. boardID always comes from the caller's path,
// never from the payload.
func NewTask(boardID int64, in TaskInput, due *Date, now time.Time) Task {
	t := Task{
		Title:       in.Title,
		Description: DefaultDescription,
		Status:      StatusToDo,
		Priority:    PriorityMedium,
		DueDate:     due,
		BoardID:     boardID,
		CreatedAt:   now.UTC(),
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil && *in.Priority != "" {
		t.Priority = *in.Priority
	}
	if in.Tags != nil {
		t.Tags = *in.Tags
	}
	return t
}

// TaskPatch is a partial update. Only fields with Set are applied.
type TaskPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Status      Optional[Status]   `json:"status"`
	Priority    Optional[Priority] `json:"priority"`
	DueDate     Optional[string]   `json:"due_date"`
	Tags        Optional[string]   `json:"tags"`
}

func (p TaskPatch) Validate() error {
	if p.Title.Set {
		if p.Title.Null {
			return invalid("title", "may not be null")
		}
		if err := validateTitle(p.Title.Value); err != nil {
			return err
		}
	}
	if p.Description.Set {
		if p.Description.Null {
			return invalid("description", "may not be null")
		}
		if err := validateDescription(p.Description.Value); err != nil {
			return err
		}
	}
	if p.Status.Set && (p.Status.Null || !p.Status.Value.Valid()) {
		return invalid("status", "must be one of 'To Do', 'In Progress', 'Done'")
	}
	if p.Priority.Set && (p.Priority.Null || !p.Priority.Value.Valid()) {
		return invalid("priority", "must be one of 'High', 'Medium', 'Low'")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.DueDate.Set && !p.Tags.Set
}

// Apply merges the patch field by field onto t. A null or empty due_date clears it.
func (p TaskPatch) Apply(t Task, dates DueDateParser) (Task, error) {
	if err := p.Validate(); err != nil {
		return Task{}, err
	}
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		due, err := dates.Parse(p.DueDate.Value)
		if err != nil {
			return Task{}, err
		}
		t.DueDate = due
	}
	if p.Tags.Set {
		t.Tags = p.Tags.Value
	}
	return t, nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "field required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return invalid("title", "must be at most 255 characters")
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return invalid("description", "must be at most 1000 characters")
	}
	return nil
}
