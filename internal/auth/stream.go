package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// Session-change event types delivered by the auth service.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// Event is one session-change notification. Session is nil for sign-out.
type Event struct {
	Type    string   `json:"event"`
	Session *Session `json:"session"`
}

// EventStream is a live subscription to session-change notifications.
type EventStream struct {
	conn *ws.Conn
}

// Events opens the session-change stream for the given access token. The
// caller owns the stream and must Close it; closing is the unsubscribe.
func (c *Client) Events(ctx context.Context, accessToken string) (*EventStream, error) {
	u := strings.Replace(c.baseURL, "http", "ws", 1) + "/auth/v1/events"

	header := http.Header{}
	header.Set("apikey", c.apiKey)
	header.Set("Authorization", "Bearer "+accessToken)

	conn, _, err := ws.Dial(ctx, u, &ws.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks until the next event arrives or ctx is done.
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// Close releases the subscription.
func (s *EventStream) Close() error {
	return s.conn.Close(ws.StatusNormalClosure, "")
}
