// Package tracking subscribes to live status events for a ride over a
// websocket.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/models"
)

type Dialer struct {
	BaseURL string // ws:// or wss://
	Tokens  api.TokenSource
	Logger  *slog.Logger
	Dialer  *websocket.Dialer
}

// Subscription is one open feed. Events is closed when the connection ends.
type Subscription struct {
	conn   *websocket.Conn
	events chan models.StatusEvent
	stop   func() bool

	once sync.Once
}

func (d *Dialer) Subscribe(ctx context.Context, rideID string) (*Subscription, error) {
	if rideID == "" {
		return nil, api.ErrInvalidID
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	target := strings.TrimRight(d.BaseURL, "/") + "/ws/rides/" + url.PathEscape(rideID)
	header := http.Header{}
	if d.Tokens != nil {
		tok, ok, err := d.Tokens.Token(ctx)
		if err != nil {
			logger.Warn("reading session token for tracking", "error", err)
		} else if ok {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", target, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	s := &Subscription{conn: conn, events: make(chan models.StatusEvent, 8)}
	s.stop = context.AfterFunc(ctx, func() { s.Close() })
	go s.readLoop(ctx, logger.With("ride_id", rideID))
	return s, nil
}

func (s *Subscription) Events() <-chan models.StatusEvent { return s.events }

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	return err
}

func (s *Subscription) readLoop(ctx context.Context, logger *slog.Logger) {
	defer close(s.events)
	defer s.stop()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("tracking connection ended", "error", err)
			}
			return
		}
		var evt models.StatusEvent
		if err := json.Unmarshal(data, &evt); err != nil || evt.RideID == "" {
			logger.Warn("skipping malformed tracking frame", "error", err)
			continue
		}
		select {
		case s.events <- evt:
		case <-ctx.Done():
			return
		}
	}
}
