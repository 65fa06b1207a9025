// Package app wires the session tracker, entity cache, and remote clients
// into one explicitly-owned handle. Construct it once at startup and pass
// it to consumers; there is no package-level state.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yukepa21-lab/kajishift-app/internal/auth"
	"github.com/yukepa21-lab/kajishift-app/internal/cache"
	"github.com/yukepa21-lab/kajishift-app/internal/config"
	"github.com/yukepa21-lab/kajishift-app/internal/database"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
	"github.com/yukepa21-lab/kajishift-app/internal/remote"
)

// App is the client core: one authenticated session, three cached entity
// collections, and the write path that keeps them coherent with the remote
// store.
type App struct {
	logger  *slog.Logger
	db      *sql.DB
	authC   *auth.Client
	tracker *auth.Tracker
	remote  *remote.Client
	cache   *cache.Cache
	unsub   func()
}

// New builds an App from configuration. Call Start to resolve the session,
// and Close when done.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	authClient := auth.NewClient(auth.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Logger:  logger,
	})
	sessions := auth.NewSessionStore(db, cfg.LocalSecret)
	tracker := auth.NewTracker(authClient, sessions, logger)

	remoteClient := remote.NewClient(remote.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Logger:  logger,
	}, tracker)

	a := &App{
		logger:  logger.With("component", "app"),
		db:      db,
		authC:   authClient,
		tracker: tracker,
		remote:  remoteClient,
		cache:   cache.New(remoteClient, tracker, logger),
	}

	// Sign-out from any path empties the cache immediately.
	a.unsub = tracker.Subscribe(func(id *auth.Identity) {
		if id == nil {
			a.cache.Reset()
		}
	})
	return a, nil
}

// Start resolves the persisted session and, when signed in, performs the
// initial fetch of all three collections. A fetch failure is returned but
// leaves the app usable; re-invalidation recovers.
func (a *App) Start(ctx context.Context) error {
	a.tracker.Start(ctx)
	return a.cache.EnsureLoaded(ctx)
}

// Close releases the event subscription and the local database.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
	a.tracker.Close()
	a.db.Close()
}

// Login signs in, replaces the tracked session, and loads the collections.
func (a *App) Login(ctx context.Context, email, password string) error {
	sess, err := a.authC.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	a.tracker.SetSession(&sess)
	return a.cache.EnsureLoaded(ctx)
}

// Logout revokes the remote session and clears all local state. Local state
// is cleared even when the remote revocation fails.
func (a *App) Logout(ctx context.Context) error {
	sess := a.tracker.Session()
	a.tracker.SetSession(nil)
	if sess == nil {
		return nil
	}
	if err := a.authC.SignOut(ctx, sess.AccessToken); err != nil {
		return fmt.Errorf("revoke remote session: %w", err)
	}
	return nil
}

// Identity returns the authenticated identity, or nil when signed out.
func (a *App) Identity() *auth.Identity {
	return a.tracker.Identity()
}

// CurrentProfile returns the profile owned by the authenticated identity,
// or nil when signed out or not yet loaded.
func (a *App) CurrentProfile() *model.Profile {
	id := a.tracker.Identity()
	if id == nil {
		return nil
	}
	for _, p := range a.cache.Profiles() {
		if p.UserID == id.ID {
			profile := p
			return &profile
		}
	}
	return nil
}

// Profiles returns the cached profile collection.
func (a *App) Profiles() []model.Profile { return a.cache.Profiles() }

// Shifts returns the cached shift collection.
func (a *App) Shifts() []model.Shift { return a.cache.Shifts() }

// Tasks returns the cached task collection.
func (a *App) Tasks() []model.Task { return a.cache.Tasks() }

// IsLoading reports whether the session is still resolving or any
// collection fetch is in flight.
func (a *App) IsLoading() bool {
	return !a.tracker.Ready() || a.cache.AnyLoading()
}

// Invalidate refetches one collection on demand.
func (a *App) Invalidate(ctx context.Context, kind cache.Kind) error {
	return a.cache.Invalidate(ctx, kind)
}
