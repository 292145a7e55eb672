package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is a board column label. Any valid status may move to any other.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// ValidStatuses returns the statuses in board order.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Label is the human column title.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriorities returns priorities from most to least urgent.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is the unit of work. Creator and Assignee only ever carry the public
// projection of a user.
type Task struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	DueDate     *time.Time  `json:"dueDate"`
	AssigneeID  *int64      `json:"assigneeId"`
	CreatorID   int64       `json:"creatorId"`
	Assignee    *PublicUser `json:"assignee"`
	Creator     PublicUser  `json:"creator"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TaskFilter narrows a task listing. Zero values mean "any".
type TaskFilter struct {
	Status     Status
	Priority   Priority
	AssigneeID *int64
	CreatorID  *int64
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	return true
}

const dueDateLayout = "2006-01-02"

// ParseDueDate reads a calendar date ("2024-05-31") or an RFC 3339 timestamp
// and pins it to local noon, so the date survives any timezone offset.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dueDateLayout, s, time.Local); err == nil {
		return NormalizeDueDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", s)
	}
	return NormalizeDueDate(t), nil
}

// NormalizeDueDate keeps the calendar date of t (in t's own location) and
// sets the time of day to 12:00 local.
func NormalizeDueDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

// FormatDueDate renders a due date as a calendar date.
func FormatDueDate(t time.Time) string {
	return t.In(time.Local).Format(dueDateLayout)
}
