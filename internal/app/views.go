package app

import (
	"time"

	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

// Derived views are pure functions over a collection snapshot. Nothing here
// caches or mutates; every call recomputes from the slices it is given.

// FindShift returns the unique shift for (userID, date), or nil.
func FindShift(shifts []model.Shift, userID, date string) *model.Shift {
	for i := range shifts {
		if shifts[i].UserID == userID && shifts[i].Date == date {
			s := shifts[i]
			return &s
		}
	}
	return nil
}

// TasksForDate filters tasks to exact date equality.
func TasksForDate(tasks []model.Task, date string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out
}

// TasksForAssignee filters tasks to one date and one assignee.
func TasksForAssignee(tasks []model.Task, date, assigneeID string) []model.Task {
	var out []model.Task
	for _, t := range TasksForDate(tasks, date) {
		if t.AssigneeID == assigneeID {
			out = append(out, t)
		}
	}
	return out
}

// FindProfileByRole returns the profile holding the given role, or nil.
func FindProfileByRole(profiles []model.Profile, role model.Role) *model.Profile {
	for i := range profiles {
		if profiles[i].Role == role {
			p := profiles[i]
			return &p
		}
	}
	return nil
}

// CompletionSummary counts an assignee's completed and total tasks on date.
func CompletionSummary(tasks []model.Task, date, assigneeID string) (done, total int) {
	for _, t := range TasksForAssignee(tasks, date, assigneeID) {
		total++
		if t.IsCompleted {
			done++
		}
	}
	return done, total
}

// WeekDates returns the ISO dates of the Monday-started week containing base.
func WeekDates(base time.Time) []string {
	offset := (int(base.Weekday()) + 6) % 7
	monday := base.AddDate(0, 0, -offset)
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}

// Today returns the current local date as an ISO string.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// GetShift resolves the shift for (userID, date) from the cache snapshot.
func (a *App) GetShift(userID, date string) *model.Shift {
	return FindShift(a.cache.Shifts(), userID, date)
}

// GetTasksForDate resolves the tasks on date from the cache snapshot.
func (a *App) GetTasksForDate(date string) []model.Task {
	return TasksForDate(a.cache.Tasks(), date)
}

// GetTasksForAssignee resolves one assignee's tasks on date.
func (a *App) GetTasksForAssignee(date, assigneeID string) []model.Task {
	return TasksForAssignee(a.cache.Tasks(), date, assigneeID)
}

// ProfileByRole resolves the partner profile holding role.
func (a *App) ProfileByRole(role model.Role) *model.Profile {
	return FindProfileByRole(a.cache.Profiles(), role)
}
