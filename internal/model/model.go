package model

// Profile is one household member's record. Profiles are created at account
// setup and are read-only from the sync core's point of view.
type Profile struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Shift is one user's work schedule entry for a single calendar date.
// Date is an ISO date string (YYYY-MM-DD) with no time component.
// The remote store enforces at most one row per (user_id, date).
type Shift struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Date   string    `json:"date"`
	Kind   ShiftKind `json:"shift_type"`
}

// Task is one concrete chore instance on a specific date. Optional fields
// are pointers so that absent stays absent, distinct from a zero value.
type Task struct {
	ID              string         `json:"id"`
	AssigneeID      string         `json:"assignee_id"`
	Title           string         `json:"title"`
	Category        *TaskCategory  `json:"category,omitempty"`
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	Date            string         `json:"date"`
	IsCompleted     bool           `json:"is_completed"`
	Frequency       *TaskFrequency `json:"frequency,omitempty"`
}
