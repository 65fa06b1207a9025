package auth

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker resolves the current authenticated identity once at startup and
// then follows the auth service's session-change events. Until the initial
// lookup settles, Ready is false and dependents must not touch the remote
// store. Ready flips to true exactly once and never back, even on sign-out.
type Tracker struct {
	client *Client
	store  *SessionStore
	logger *slog.Logger

	mu      sync.RWMutex
	session *Session
	ready   bool
	subs    map[int]func(*Identity)
	nextSub int

	streamCtx context.Context
	streamUp  bool
	cancel    context.CancelFunc
}

// NewTracker creates a tracker. store may be nil, in which case sessions
// are not persisted between runs.
func NewTracker(client *Client, store *SessionStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		client: client,
		store:  store,
		logger: logger.With("component", "session"),
		subs:   make(map[int]func(*Identity)),
	}
}

// Start performs the initial session lookup and, when a session exists,
// opens the event stream. A failed lookup is treated as "no identity", not
// as a fatal error: the tracker still becomes ready.
func (t *Tracker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Lock()
	t.streamCtx = ctx
	t.mu.Unlock()

	sess := t.restore(ctx)
	if sess != nil {
		// Confirm the token still maps to a live identity.
		id, err := t.client.GetUser(ctx, sess.AccessToken)
		if err != nil {
			t.logger.Warn("session lookup failed, starting signed out", "error", err)
			sess = nil
		} else {
			sess.User = id
		}
	}

	t.mu.Lock()
	t.session = sess
	t.ready = true
	t.mu.Unlock()

	if sess != nil {
		t.openStream(sess.AccessToken)
	}
}

// restore loads the persisted session, refreshing it when expired.
func (t *Tracker) restore(ctx context.Context) *Session {
	if t.store == nil {
		return nil
	}
	sess, err := t.store.Load()
	if err != nil {
		t.logger.Warn("load persisted session", "error", err)
		return nil
	}
	if sess == nil {
		return nil
	}
	if !sess.Expired() {
		return sess
	}

	fresh, err := t.client.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.logger.Warn("refresh persisted session", "error", err)
		return nil
	}
	if err := t.store.Save(fresh); err != nil {
		t.logger.Warn("persist refreshed session", "error", err)
	}
	return &fresh
}

// openStream launches the event stream read pump, which runs until the
// stream or the tracker's lifetime ends. The dial happens inside the pump
// so an unreachable events endpoint never stalls the caller. Safe to call
// again after the pump has exited; a no-op before Start or while a pump
// is already running.
func (t *Tracker) openStream(accessToken string) {
	t.mu.Lock()
	ctx := t.streamCtx
	if ctx == nil || t.streamUp {
		t.mu.Unlock()
		return
	}
	t.streamUp = true
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			t.streamUp = false
			t.mu.Unlock()
		}()
		stream, err := t.client.Events(ctx, accessToken)
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Warn("open event stream", "error", err)
			}
			return
		}
		defer stream.Close()
		for {
			ev, err := stream.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					t.logger.Warn("event stream closed", "error", err)
				}
				return
			}
			t.applyEvent(ev)
		}
	}()
}

// applyEvent replaces the current session according to one notification.
func (t *Tracker) applyEvent(ev Event) {
	switch ev.Type {
	case EventSignedIn, EventTokenRefreshed:
		t.SetSession(ev.Session)
	case EventSignedOut:
		t.SetSession(nil)
	default:
		t.logger.Debug("ignoring unknown auth event", "type", ev.Type)
	}
}

// SetSession atomically replaces the current session, persists the change,
// and notifies subscribers. Pass nil for sign-out.
func (t *Tracker) SetSession(sess *Session) {
	t.mu.Lock()
	t.session = sess
	subs := make([]func(*Identity), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	if t.store != nil {
		var err error
		if sess == nil {
			err = t.store.Clear()
		} else {
			err = t.store.Save(*sess)
		}
		if err != nil {
			t.logger.Warn("persist session change", "error", err)
		}
	}

	id := identityOf(sess)
	for _, fn := range subs {
		fn(id)
	}

	// A sign-in that happened after startup still needs the event
	// subscription for the rest of this lifetime.
	if sess != nil {
		t.openStream(sess.AccessToken)
	}
}

// Subscribe registers onChange for every identity replacement and returns
// the unsubscribe handle.
func (t *Tracker) Subscribe(onChange func(*Identity)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = onChange
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Identity returns the current authenticated identity, or nil when signed out.
func (t *Tracker) Identity() *Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return identityOf(t.session)
}

// Ready reports whether the initial session lookup has settled.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Token returns the current access token, or "" when signed out. It
// implements the remote store's token source.
func (t *Tracker) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return ""
	}
	return t.session.AccessToken
}

// Session returns a copy of the current session, or nil when signed out.
func (t *Tracker) Session() *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return nil
	}
	s := *t.session
	return &s
}

// Close tears the tracker down, releasing the event subscription.
func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}

func identityOf(sess *Session) *Identity {
	if sess == nil {
		return nil
	}
	id := sess.User
	return &id
}
