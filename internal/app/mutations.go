package app

import (
	"context"
	"fmt"

	"github.com/yukepa21-lab/kajishift-app/internal/cache"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
	"github.com/yukepa21-lab/kajishift-app/internal/remote"
)

// Every write follows the same contract: the remote call completes first,
// then the affected collection is invalidated and its refetch awaited, so
// the cache reflects the write by the time the call returns. A failed
// remote call leaves the cache at its last-known-good state.

// UpsertShift writes the shift for (userID, date), replacing any existing
// kind for that pair. The remote store enforces the conflict key.
func (a *App) UpsertShift(ctx context.Context, userID, date string, kind model.ShiftKind) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid shift kind %q", kind)
	}
	row := map[string]any{
		"user_id":    userID,
		"date":       date,
		"shift_type": string(kind),
	}
	if err := a.remote.Upsert(ctx, remote.TableShifts, row, "user_id,date"); err != nil {
		return err
	}
	return a.cache.Invalidate(ctx, cache.KindShifts)
}

// TaskDraft is the input for AddTask. The identifier is assigned by the
// remote store. Nil optional fields are persisted as nulls, not as empty
// strings or zeroes.
type TaskDraft struct {
	AssigneeID      string
	Title           string
	Date            string
	IsCompleted     bool
	Category        *model.TaskCategory
	DurationMinutes *int
	Frequency       *model.TaskFrequency
}

// AddTask creates a task.
func (a *App) AddTask(ctx context.Context, draft TaskDraft) error {
	if draft.AssigneeID == "" {
		return fmt.Errorf("add task: assignee is required")
	}
	if draft.Title == "" {
		return fmt.Errorf("add task: title is required")
	}
	if draft.Date == "" {
		return fmt.Errorf("add task: date is required")
	}

	row := map[string]any{
		"assignee_id":      draft.AssigneeID,
		"title":            draft.Title,
		"date":             draft.Date,
		"is_completed":     draft.IsCompleted,
		"category":         nil,
		"duration_minutes": nil,
		"frequency":        nil,
	}
	if draft.Category != nil {
		row["category"] = string(*draft.Category)
	}
	if draft.DurationMinutes != nil {
		row["duration_minutes"] = *draft.DurationMinutes
	}
	if draft.Frequency != nil {
		row["frequency"] = string(*draft.Frequency)
	}

	if err := a.remote.Insert(ctx, remote.TableTasks, row); err != nil {
		return err
	}
	return a.cache.Invalidate(ctx, cache.KindTasks)
}

// TaskPatch is a field-presence-aware partial update: only non-nil fields
// are sent, so an omitted field is left untouched remotely.
type TaskPatch struct {
	AssigneeID      *string
	Title           *string
	Date            *string
	IsCompleted     *bool
	Category        *model.TaskCategory
	DurationMinutes *int
	Frequency       *model.TaskFrequency
}

func (p TaskPatch) columns() map[string]any {
	cols := make(map[string]any)
	if p.AssigneeID != nil {
		cols["assignee_id"] = *p.AssigneeID
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.IsCompleted != nil {
		cols["is_completed"] = *p.IsCompleted
	}
	if p.Category != nil {
		cols["category"] = string(*p.Category)
	}
	if p.DurationMinutes != nil {
		cols["duration_minutes"] = *p.DurationMinutes
	}
	if p.Frequency != nil {
		cols["frequency"] = string(*p.Frequency)
	}
	return cols
}

// UpdateTask patches the fields present in patch. Returns an error wrapping
// remote.ErrNotFound when the store has no such row. An empty patch is a
// no-op.
func (a *App) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	cols := patch.columns()
	if len(cols) == 0 {
		return nil
	}
	if err := a.remote.Update(ctx, remote.TableTasks, id, cols); err != nil {
		return err
	}
	return a.cache.Invalidate(ctx, cache.KindTasks)
}

// DeleteTask removes a task. Deleting an id the store no longer has is
// treated as success.
func (a *App) DeleteTask(ctx context.Context, id string) error {
	if err := a.remote.Delete(ctx, remote.TableTasks, id); err != nil {
		return err
	}
	return a.cache.Invalidate(ctx, cache.KindTasks)
}

// ToggleTask inverts the completion flag of a cached task. When the id is
// not in the cache (for example a concurrent delete already removed it)
// this is a silent no-op: no error, no new row.
func (a *App) ToggleTask(ctx context.Context, id string) error {
	for _, t := range a.cache.Tasks() {
		if t.ID == id {
			inverted := !t.IsCompleted
			return a.UpdateTask(ctx, id, TaskPatch{IsCompleted: &inverted})
		}
	}
	return nil
}
