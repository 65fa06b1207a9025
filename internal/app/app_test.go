package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yukepa21-lab/kajishift-app/internal/config"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

// fakeService is an in-memory stand-in for the remote table store and auth
// service, faithful to the wire contract the clients speak: bearer-token
// auth, id=eq filters, on_conflict upserts, return=representation patches.
type fakeService struct {
	mu         sync.Mutex
	tables     map[string][]map[string]any
	token      string
	listCalls  map[string]int
	eventDials int
	failWrites bool
}

func newFakeService() *fakeService {
	return &fakeService{
		tables:    map[string][]map[string]any{"profiles": {}, "shifts": {}, "tasks": {}},
		token:     "access-valid",
		listCalls: map[string]int{},
	}
}

func (f *fakeService) seed(table string, row map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	row["id"] = id
	f.tables[table] = append(f.tables[table], row)
	return id
}

func (f *fakeService) rowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *fakeService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/auth/v1/"):
			f.handleAuth(w, r)
		case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
			f.handleRest(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeService) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/auth/v1/") {
	case "token":
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.token,
			"refresh_token": "refresh-valid",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-a", "email": "a@example.com"},
		})
	case "user":
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "user-a", "email": "a@example.com"})
	case "logout":
		w.WriteHeader(http.StatusNoContent)
	case "events":
		f.mu.Lock()
		f.eventDials++
		f.mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeService) handleRest(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "missing or invalid token"})
		return
	}

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.tables[table]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if f.failWrites && r.Method != http.MethodGet {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "write rejected"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.listCalls[table]++
		out := make([]map[string]any, len(rows))
		copy(out, rows)
		if col, _, found := strings.Cut(r.URL.Query().Get("order"), "."); found && col != "created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				a, _ := out[i][col].(string)
				b, _ := out[j][col].(string)
				return a < b
			})
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var row map[string]any
		json.NewDecoder(r.Body).Decode(&row)
		if conflict := r.URL.Query().Get("on_conflict"); conflict != "" {
			keys := strings.Split(conflict, ",")
			for _, existing := range rows {
				if rowMatches(existing, row, keys) {
					for k, v := range row {
						existing[k] = v
					}
					w.WriteHeader(http.StatusCreated)
					return
				}
			}
		}
		row["id"] = uuid.NewString()
		f.tables[table] = append(rows, row)
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		var partial map[string]any
		json.NewDecoder(r.Body).Decode(&partial)
		updated := []map[string]any{}
		for _, existing := range rows {
			if existing["id"] == id {
				for k, v := range partial {
					existing[k] = v
				}
				updated = append(updated, existing)
			}
		}
		json.NewEncoder(w).Encode(updated)

	case http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		kept := rows[:0]
		for _, existing := range rows {
			if existing["id"] != id {
				kept = append(kept, existing)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

func rowMatches(existing, incoming map[string]any, keys []string) bool {
	for _, k := range keys {
		if existing[k] != incoming[k] {
			return false
		}
	}
	return true
}

// newTestApp builds an App against a fake service, started and signed in.
func newTestApp(t *testing.T, svc *fakeService) *App {
	t.Helper()
	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	a, err := New(config.Config{
		BaseURL:     server.URL,
		APIKey:      "pk-test",
		DBPath:      ":memory:",
		LocalSecret: "test-secret",
	}, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.Login(context.Background(), "a@example.com", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return a
}

func seedProfiles(svc *fakeService) (husbandID, wifeID string) {
	husbandID = svc.seed("profiles", map[string]any{"user_id": "user-a", "name": "太郎", "role": "夫"})
	wifeID = svc.seed("profiles", map[string]any{"user_id": "user-b", "name": "花子", "role": "妻"})
	return husbandID, wifeID
}

func TestNoRemoteCallsBeforeLogin(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	a, err := New(config.Config{
		BaseURL: server.URL, APIKey: "pk", DBPath: ":memory:", LocalSecret: "s",
	}, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if len(a.Profiles()) != 0 || len(a.Shifts()) != 0 || len(a.Tasks()) != 0 {
		t.Error("expected empty collections before login")
	}
	svc.mu.Lock()
	calls := len(svc.listCalls)
	svc.mu.Unlock()
	if calls != 0 {
		t.Errorf("list calls before login = %d, want 0", calls)
	}
	if a.Identity() != nil {
		t.Error("expected absent identity")
	}
}

func TestLoginLoadsStateBundle(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	a := newTestApp(t, svc)

	if got := len(a.Profiles()); got != 2 {
		t.Fatalf("profiles = %d, want 2", got)
	}
	id := a.Identity()
	if id == nil || id.ID != "user-a" {
		t.Fatalf("identity = %+v", id)
	}
	profile := a.CurrentProfile()
	if profile == nil || profile.Name != "太郎" {
		t.Fatalf("current profile = %+v", profile)
	}
	if profile.Role != model.RoleHusband {
		t.Errorf("role = %q", profile.Role)
	}
	if a.IsLoading() {
		t.Error("expected loading false after login settles")
	}
}

func TestLoginSubscribesSessionEvents(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	newTestApp(t, svc)

	// Signing in after startup must still open the session-change stream.
	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.mu.Lock()
		dials := svc.eventDials
		svc.mu.Unlock()
		if dials > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no event stream dial after login")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUpsertShiftThenGetShift(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftNight); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	shift := a.GetShift("user-a", "2024-05-01")
	if shift == nil {
		t.Fatal("expected shift in cache after upsert resolves")
	}
	if shift.Kind != model.ShiftNight {
		t.Errorf("kind = %q, want 夜勤", shift.Kind)
	}

	// Repeating the identical upsert is idempotent.
	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftNight); err != nil {
		t.Fatalf("repeat upsert: %v", err)
	}
	if got := svc.rowCount("shifts"); got != 1 {
		t.Errorf("shift rows = %d, want 1", got)
	}
}

func TestUpsertShiftSecondWriteWins(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftNight); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftOff); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	shift := a.GetShift("user-a", "2024-05-01")
	if shift == nil {
		t.Fatal("expected shift")
	}
	if shift.Kind != model.ShiftOff {
		t.Errorf("kind = %q, want 休日", shift.Kind)
	}
	if got := svc.rowCount("shifts"); got != 1 {
		t.Errorf("shift rows = %d, want 1 (no duplicate)", got)
	}
}

func TestUpsertShiftInvalidKind(t *testing.T) {
	svc := newFakeService()
	a := newTestApp(t, svc)

	err := a.UpsertShift(context.Background(), "user-a", "2024-05-01", model.ShiftKind("graveyard"))
	if err == nil {
		t.Fatal("expected error for invalid kind")
	}
	if got := svc.rowCount("shifts"); got != 0 {
		t.Errorf("shift rows = %d, want 0", got)
	}
}

func TestAddTaskScenario(t *testing.T) {
	svc := newFakeService()
	husbandID, _ := seedProfiles(svc)
	a := newTestApp(t, svc)

	err := a.AddTask(context.Background(), TaskDraft{
		AssigneeID: husbandID,
		Title:      "dishes",
		Date:       "2024-05-01",
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	tasks := a.GetTasksForDate("2024-05-01")
	if len(tasks) != 1 {
		t.Fatalf("tasks on date = %d, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Title != "dishes" {
		t.Errorf("title = %q", task.Title)
	}
	if task.IsCompleted {
		t.Error("new task must start incomplete")
	}
	if task.Category != nil || task.DurationMinutes != nil || task.Frequency != nil {
		t.Errorf("expected absent optionals, got %+v", task)
	}
	if task.ID == "" {
		t.Error("expected store-assigned id")
	}
}

func TestToggleTaskIsInvolution(t *testing.T) {
	svc := newFakeService()
	husbandID, _ := seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	if err := a.AddTask(ctx, TaskDraft{AssigneeID: husbandID, Title: "laundry", Date: "2024-05-01"}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	id := a.GetTasksForDate("2024-05-01")[0].ID

	if err := a.ToggleTask(ctx, id); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !a.GetTasksForDate("2024-05-01")[0].IsCompleted {
		t.Error("expected completed after first toggle")
	}

	if err := a.ToggleTask(ctx, id); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if a.GetTasksForDate("2024-05-01")[0].IsCompleted {
		t.Error("expected original flag restored after second toggle")
	}
}

func TestToggleMissingTaskIsSilentNoop(t *testing.T) {
	svc := newFakeService()
	a := newTestApp(t, svc)

	if err := a.ToggleTask(context.Background(), "already-deleted"); err != nil {
		t.Fatalf("toggle missing: %v", err)
	}
	if got := svc.rowCount("tasks"); got != 0 {
		t.Errorf("task rows = %d, want 0 (no row created)", got)
	}
}

func TestUpdateTaskPartialLeavesOtherFields(t *testing.T) {
	svc := newFakeService()
	husbandID, _ := seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	category := model.CategoryCleaning
	duration := 45
	frequency := model.FreqWeekly
	err := a.AddTask(ctx, TaskDraft{
		AssigneeID:      husbandID,
		Title:           "vacuum",
		Date:            "2024-05-01",
		Category:        &category,
		DurationMinutes: &duration,
		Frequency:       &frequency,
	})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	id := a.GetTasksForDate("2024-05-01")[0].ID

	title := "vacuum upstairs"
	if err := a.UpdateTask(ctx, id, TaskPatch{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}

	task := a.GetTasksForDate("2024-05-01")[0]
	if task.Title != "vacuum upstairs" {
		t.Errorf("title = %q", task.Title)
	}
	if task.Category == nil || *task.Category != category {
		t.Errorf("category changed: %v", task.Category)
	}
	if task.DurationMinutes == nil || *task.DurationMinutes != duration {
		t.Errorf("duration changed: %v", task.DurationMinutes)
	}
	if task.Frequency == nil || *task.Frequency != frequency {
		t.Errorf("frequency changed: %v", task.Frequency)
	}
	if task.AssigneeID != husbandID {
		t.Errorf("assignee changed: %q", task.AssigneeID)
	}
	if task.Date != "2024-05-01" {
		t.Errorf("date changed: %q", task.Date)
	}
	if task.IsCompleted {
		t.Error("completion flag changed")
	}
}

func TestUpdateMissingTaskNotFound(t *testing.T) {
	svc := newFakeService()
	a := newTestApp(t, svc)

	title := "x"
	err := a.UpdateTask(context.Background(), "missing", TaskPatch{Title: &title})
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestDeleteTaskGoneFromAllDates(t *testing.T) {
	svc := newFakeService()
	husbandID, _ := seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	if err := a.AddTask(ctx, TaskDraft{AssigneeID: husbandID, Title: "dishes", Date: "2024-05-01"}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	id := a.GetTasksForDate("2024-05-01")[0].ID

	if err := a.DeleteTask(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, date := range []string{"2024-05-01", "2024-05-02", ""} {
		for _, task := range a.GetTasksForDate(date) {
			if task.ID == id {
				t.Errorf("deleted task still visible on %q", date)
			}
		}
	}

	// Deleting again is idempotent.
	if err := a.DeleteTask(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestWriteRejectedLeavesCacheUntouched(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	a := newTestApp(t, svc)
	ctx := context.Background()

	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftDay); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	svc.mu.Lock()
	svc.failWrites = true
	svc.mu.Unlock()

	if err := a.UpsertShift(ctx, "user-a", "2024-05-01", model.ShiftOff); err == nil {
		t.Fatal("expected write-rejected error")
	}
	shift := a.GetShift("user-a", "2024-05-01")
	if shift == nil || shift.Kind != model.ShiftDay {
		t.Errorf("cache changed after rejected write: %+v", shift)
	}
}

func TestLogoutClearsState(t *testing.T) {
	svc := newFakeService()
	seedProfiles(svc)
	a := newTestApp(t, svc)

	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if a.Identity() != nil {
		t.Error("expected absent identity after logout")
	}
	if len(a.Profiles()) != 0 || len(a.Tasks()) != 0 || len(a.Shifts()) != 0 {
		t.Error("expected empty collections after logout")
	}
}
