package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

// Row shapes mirror the store's snake_case columns. Nullable columns decode
// through pointers so an absent value stays absent in the mapped entity.

type profileRow struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type shiftRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
}

type taskRow struct {
	ID              string  `json:"id"`
	AssigneeID      string  `json:"assignee_id"`
	Title           string  `json:"title"`
	Category        *string `json:"category"`
	DurationMinutes *int    `json:"duration_minutes"`
	Date            string  `json:"date"`
	IsCompleted     bool    `json:"is_completed"`
	Frequency       *string `json:"frequency"`
}

// ListProfiles fetches all profiles in creation order.
func (c *Client) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	raw, err := c.List(ctx, TableProfiles, "created_at")
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(raw))
	for _, r := range raw {
		var row profileRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("decode profile row: %w", err)
		}
		role, err := model.ParseRole(row.Role)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", row.ID, err)
		}
		profiles = append(profiles, model.Profile{
			ID:     row.ID,
			UserID: row.UserID,
			Name:   row.Name,
			Role:   role,
		})
	}
	return profiles, nil
}

// ListShifts fetches all shifts in date order.
func (c *Client) ListShifts(ctx context.Context) ([]model.Shift, error) {
	raw, err := c.List(ctx, TableShifts, "date")
	if err != nil {
		return nil, err
	}
	shifts := make([]model.Shift, 0, len(raw))
	for _, r := range raw {
		var row shiftRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("decode shift row: %w", err)
		}
		kind, err := model.ParseShiftKind(row.ShiftType)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", row.ID, err)
		}
		shifts = append(shifts, model.Shift{
			ID:     row.ID,
			UserID: row.UserID,
			Date:   row.Date,
			Kind:   kind,
		})
	}
	return shifts, nil
}

// ListTasks fetches all tasks in creation order.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	raw, err := c.List(ctx, TableTasks, "created_at")
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(raw))
	for _, r := range raw {
		var row taskRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("decode task row: %w", err)
		}
		task := model.Task{
			ID:          row.ID,
			AssigneeID:  row.AssigneeID,
			Title:       row.Title,
			Date:        row.Date,
			IsCompleted: row.IsCompleted,
		}
		if row.Category != nil {
			cat, err := model.ParseTaskCategory(*row.Category)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", row.ID, err)
			}
			task.Category = &cat
		}
		if row.DurationMinutes != nil {
			d := *row.DurationMinutes
			task.DurationMinutes = &d
		}
		if row.Frequency != nil {
			freq, err := model.ParseTaskFrequency(*row.Frequency)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", row.ID, err)
			}
			task.Frequency = &freq
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
