package httpapi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/observability"
)

const writeWait = 5 * time.Second

// Subscriber is one websocket watching a ride.
type Subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Subscriber) Send(evt models.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(evt)
}

// Hub holds tracking subscribers keyed by ride id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]struct{}), logger: logger}
}

func (h *Hub) Add(rideID string, conn *websocket.Conn) *Subscriber {
	s := &Subscriber{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[rideID] == nil {
		h.subs[rideID] = make(map[*Subscriber]struct{})
	}
	h.subs[rideID][s] = struct{}{}
	observability.TrackingSubscribers.Inc()
	return s
}

// Remove drops and closes s. Removing twice is a no-op.
func (h *Hub) Remove(rideID string, s *Subscriber) {
	h.mu.Lock()
	set := h.subs[rideID]
	_, ok := set[s]
	if ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, rideID)
		}
	}
	h.mu.Unlock()
	if ok {
		observability.TrackingSubscribers.Dec()
		_ = s.conn.Close()
	}
}

func (h *Hub) Count(rideID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[rideID])
}

// Broadcast sends evt to every subscriber of its ride and returns how many
// received it. Subscribers that fail are dropped.
func (h *Hub) Broadcast(evt models.StatusEvent) int {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subs[evt.RideID]))
	for s := range h.subs[evt.RideID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	sent := 0
	for _, s := range targets {
		if err := s.Send(evt); err != nil {
			h.logger.Warn("ws send error", "ride_id", evt.RideID, "error", err)
			h.Remove(evt.RideID, s)
			continue
		}
		sent++
	}
	return sent
}
