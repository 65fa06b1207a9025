package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yukepa21-lab/kajishift-app/internal/auth"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

// Kind names one cached entity collection.
type Kind string

const (
	KindProfiles Kind = "profiles"
	KindShifts   Kind = "shifts"
	KindTasks    Kind = "tasks"
)

// Kinds lists every cached collection.
var Kinds = []Kind{KindProfiles, KindShifts, KindTasks}

// Lister is the slice of the remote store the cache reads from.
type Lister interface {
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	ListShifts(ctx context.Context) ([]model.Shift, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
}

// Session gates fetching: no collection is fetched until the session
// lookup has settled with a signed-in identity.
type Session interface {
	Ready() bool
	Identity() *auth.Identity
}

// Cache owns the in-memory copies of the three entity collections. The
// remote store is the source of truth; each collection is replaced
// wholesale on a successful fetch, never merged field by field.
type Cache struct {
	remote  Lister
	session Session
	logger  *slog.Logger

	mu       sync.RWMutex
	profiles []model.Profile
	shifts   []model.Shift
	tasks    []model.Task
	loading  map[Kind]bool
	errs     map[Kind]error

	group singleflight.Group
}

// New creates an empty cache.
func New(remote Lister, session Session, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		remote:  remote,
		session: session,
		logger:  logger.With("component", "cache"),
		loading: make(map[Kind]bool),
		errs:    make(map[Kind]error),
	}
}

// Profiles returns a copy of the cached profile collection, in creation order.
func (c *Cache) Profiles() []model.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Shifts returns a copy of the cached shift collection, in date order.
func (c *Cache) Shifts() []model.Shift {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Shift, len(c.shifts))
	copy(out, c.shifts)
	return out
}

// Tasks returns a copy of the cached task collection, in creation order.
func (c *Cache) Tasks() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Loading reports whether a fetch for kind is in flight.
func (c *Cache) Loading(kind Kind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading[kind]
}

// AnyLoading reports whether any collection has a fetch in flight.
func (c *Cache) AnyLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range Kinds {
		if c.loading[k] {
			return true
		}
	}
	return false
}

// Err returns the last fetch failure for kind, cleared by the next
// successful fetch. A failed kind never disturbs the other collections.
func (c *Cache) Err(kind Kind) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errs[kind]
}

// Invalidate refetches one collection and returns the fetch error to its
// caller. Concurrent invalidations of the same kind collapse to a single
// in-flight fetch whose result all callers observe. When the session is not
// ready or absent, the collection is emptied and no network call is made.
func (c *Cache) Invalidate(ctx context.Context, kind Kind) error {
	if !c.signedIn() {
		c.clear(kind)
		return nil
	}

	_, err, _ := c.group.Do(string(kind), func() (any, error) {
		return nil, c.fetch(ctx, kind)
	})
	return err
}

// EnsureLoaded fetches all three collections. Each kind fails
// independently; the first failure is returned after every kind has been
// attempted. It is a no-op while signed out.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	if !c.signedIn() {
		return nil
	}
	var firstErr error
	for _, kind := range Kinds {
		if err := c.Invalidate(ctx, kind); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reset empties every collection and clears error state, used on sign-out.
func (c *Cache) Reset() {
	for _, kind := range Kinds {
		c.clear(kind)
	}
}

func (c *Cache) signedIn() bool {
	return c.session.Ready() && c.session.Identity() != nil
}

func (c *Cache) fetch(ctx context.Context, kind Kind) error {
	c.mu.Lock()
	c.loading[kind] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading[kind] = false
		c.mu.Unlock()
	}()

	switch kind {
	case KindProfiles:
		profiles, err := c.remote.ListProfiles(ctx)
		if err != nil {
			return c.fail(kind, err)
		}
		c.mu.Lock()
		c.profiles = profiles
		c.errs[kind] = nil
		c.mu.Unlock()
	case KindShifts:
		shifts, err := c.remote.ListShifts(ctx)
		if err != nil {
			return c.fail(kind, err)
		}
		c.mu.Lock()
		c.shifts = shifts
		c.errs[kind] = nil
		c.mu.Unlock()
	case KindTasks:
		tasks, err := c.remote.ListTasks(ctx)
		if err != nil {
			return c.fail(kind, err)
		}
		c.mu.Lock()
		c.tasks = tasks
		c.errs[kind] = nil
		c.mu.Unlock()
	default:
		return fmt.Errorf("unknown cache kind %q", kind)
	}
	return nil
}

// fail records a fetch failure without touching the last-known-good
// collection.
func (c *Cache) fail(kind Kind, err error) error {
	c.logger.Warn("fetch failed", "kind", kind, "error", err)
	c.mu.Lock()
	c.errs[kind] = err
	c.mu.Unlock()
	return err
}

func (c *Cache) clear(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch kind {
	case KindProfiles:
		c.profiles = nil
	case KindShifts:
		c.shifts = nil
	case KindTasks:
		c.tasks = nil
	}
	c.errs[kind] = nil
	c.loading[kind] = false
}
