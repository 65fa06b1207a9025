package auth

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionStore persists the current session in the local database so the
// CLI stays signed in between runs. The refresh token is encrypted at rest.
// At most one session row exists at a time.
type SessionStore struct {
	db     *sql.DB
	secret string
}

// NewSessionStore creates a session store. secret encrypts the persisted
// refresh token; it must be stable across runs for Load to succeed.
func NewSessionStore(db *sql.DB, secret string) *SessionStore {
	return &SessionStore{db: db, secret: secret}
}

// Save replaces the persisted session.
func (s *SessionStore) Save(sess Session) error {
	sealed, err := sealToken(sess.RefreshToken, s.secret)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, user_id, email, access_token, refresh_token_enc, expires_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = excluded.user_id,
		   email = excluded.email,
		   access_token = excluded.access_token,
		   refresh_token_enc = excluded.refresh_token_enc,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		sess.User.ID, sess.User.Email, sess.AccessToken, sealed,
		sess.ExpiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or nil when none is stored.
func (s *SessionStore) Load() (*Session, error) {
	row := s.db.QueryRow(
		`SELECT user_id, email, access_token, refresh_token_enc, expires_at FROM sessions WHERE id = 1`,
	)

	var sess Session
	var sealed []byte
	err := row.Scan(&sess.User.ID, &sess.User.Email, &sess.AccessToken, &sealed, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.RefreshToken, err = openToken(sealed, s.secret)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	return &sess, nil
}

// Clear removes the persisted session. Clearing an empty store is fine.
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
