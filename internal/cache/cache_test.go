package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yukepa21-lab/kajishift-app/internal/auth"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

type fakeSession struct {
	ready    bool
	identity *auth.Identity
}

func (s *fakeSession) Ready() bool              { return s.ready }
func (s *fakeSession) Identity() *auth.Identity { return s.identity }

type fakeLister struct {
	mu        sync.Mutex
	profiles  []model.Profile
	shifts    []model.Shift
	tasks     []model.Task
	taskErr   error
	calls     map[string]int
	taskBlock chan struct{} // when set, ListTasks waits on it
	taskCalls atomic.Int32
}

func newFakeLister() *fakeLister {
	return &fakeLister{calls: map[string]int{}}
}

func (f *fakeLister) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["profiles"]++
	return f.profiles, nil
}

func (f *fakeLister) ListShifts(ctx context.Context) ([]model.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["shifts"]++
	return f.shifts, nil
}

func (f *fakeLister) ListTasks(ctx context.Context) ([]model.Task, error) {
	f.taskCalls.Add(1)
	if f.taskBlock != nil {
		<-f.taskBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["tasks"]++
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return f.tasks, nil
}

func (f *fakeLister) callCount(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func signedIn() *fakeSession {
	return &fakeSession{ready: true, identity: &auth.Identity{ID: "u1"}}
}

func TestNoFetchWhileSignedOut(t *testing.T) {
	lister := newFakeLister()
	lister.tasks = []model.Task{{ID: "t1"}}

	for _, sess := range []*fakeSession{
		{ready: false},
		{ready: true, identity: nil},
	} {
		c := New(lister, sess, nil)
		if err := c.EnsureLoaded(context.Background()); err != nil {
			t.Fatalf("ensure loaded: %v", err)
		}
		if err := c.Invalidate(context.Background(), KindTasks); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if len(c.Tasks()) != 0 {
			t.Error("expected empty collection while signed out")
		}
		if c.Loading(KindTasks) {
			t.Error("expected loading false while signed out")
		}
	}

	if got := lister.callCount("tasks"); got != 0 {
		t.Errorf("remote list calls = %d, want 0 before readiness", got)
	}
}

func TestEnsureLoadedPopulatesAll(t *testing.T) {
	lister := newFakeLister()
	lister.profiles = []model.Profile{{ID: "p1", UserID: "u1", Name: "A", Role: model.RoleHusband}}
	lister.shifts = []model.Shift{{ID: "s1", UserID: "u1", Date: "2024-05-01", Kind: model.ShiftDay}}
	lister.tasks = []model.Task{{ID: "t1", Title: "dishes", Date: "2024-05-01"}}

	c := New(lister, signedIn(), nil)
	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("ensure loaded: %v", err)
	}

	if len(c.Profiles()) != 1 || len(c.Shifts()) != 1 || len(c.Tasks()) != 1 {
		t.Errorf("collections = %d/%d/%d, want 1/1/1",
			len(c.Profiles()), len(c.Shifts()), len(c.Tasks()))
	}
	if c.AnyLoading() {
		t.Error("expected no fetch in flight after EnsureLoaded")
	}
}

func TestFetchFailureKeepsLastKnownGood(t *testing.T) {
	lister := newFakeLister()
	lister.tasks = []model.Task{{ID: "t1"}}
	c := New(lister, signedIn(), nil)

	if err := c.Invalidate(context.Background(), KindTasks); err != nil {
		t.Fatalf("first invalidate: %v", err)
	}

	lister.mu.Lock()
	lister.taskErr = errors.New("store unreachable")
	lister.mu.Unlock()

	err := c.Invalidate(context.Background(), KindTasks)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if c.Err(KindTasks) == nil {
		t.Error("expected recorded error for tasks")
	}
	if len(c.Tasks()) != 1 {
		t.Error("failed fetch must not discard last-known-good collection")
	}
	if c.Err(KindShifts) != nil {
		t.Error("task failure must not mark shifts failed")
	}

	// Recoverable by re-invalidation.
	lister.mu.Lock()
	lister.taskErr = nil
	lister.tasks = []model.Task{{ID: "t1"}, {ID: "t2"}}
	lister.mu.Unlock()

	if err := c.Invalidate(context.Background(), KindTasks); err != nil {
		t.Fatalf("recovery invalidate: %v", err)
	}
	if c.Err(KindTasks) != nil {
		t.Error("expected error cleared after successful fetch")
	}
	if len(c.Tasks()) != 2 {
		t.Errorf("tasks = %d, want 2", len(c.Tasks()))
	}
}

func TestConcurrentInvalidationsCollapse(t *testing.T) {
	lister := newFakeLister()
	lister.taskBlock = make(chan struct{})
	c := New(lister, signedIn(), nil)

	const waiters = 8
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Invalidate(context.Background(), KindTasks)
		}()
	}

	// Let the goroutines pile up behind the blocked fetch, then release it.
	for lister.taskCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(5 * time.Millisecond)
	close(lister.taskBlock)
	wg.Wait()

	if got := lister.taskCalls.Load(); got >= waiters {
		t.Errorf("remote calls = %d, want collapsed (< %d)", got, waiters)
	}
}

func TestReset(t *testing.T) {
	lister := newFakeLister()
	lister.tasks = []model.Task{{ID: "t1"}}
	c := New(lister, signedIn(), nil)

	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("ensure loaded: %v", err)
	}
	c.Reset()

	if len(c.Tasks()) != 0 || len(c.Profiles()) != 0 || len(c.Shifts()) != 0 {
		t.Error("expected all collections empty after reset")
	}
}
