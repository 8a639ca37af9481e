// Package ridelist is the my-rides screen.
package ridelist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/ui"
)

const MsgLoadFailed = "Failed to load rides. Please try again later."

type State int

const (
	Loading State = iota
	Error
	Loaded
)

func (s State) String() string {
	switch s {
	case Error:
		return "error"
	case Loaded:
		return "loaded"
	default:
		return "loading"
	}
}

type RideLister interface {
	ListCustomerRides(ctx context.Context) ([]models.Ride, error)
}

// Item is one row of the list.
type Item struct {
	ID          string
	Driver      string
	Pickup      string
	Dropoff     string
	Status      models.RideStatus
	StatusColor string
}

func itemFor(r models.Ride) Item {
	return Item{
		ID:          r.ID,
		Driver:      r.Driver.FullName(),
		Pickup:      r.PickupLocation,
		Dropoff:     r.DropoffLocation,
		Status:      r.Status,
		StatusColor: r.Status.Color(),
	}
}

type Snapshot struct {
	State   State
	Items   []Item
	Message string
}

type Screen struct {
	API    RideLister
	Cache  *cache.Cache
	Nav    ui.Navigator
	Logger *slog.Logger

	mu   sync.Mutex
	snap Snapshot
}

func New(l RideLister, c *cache.Cache, nav ui.Navigator, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(0)
	}
	return &Screen{API: l, Cache: c, Nav: nav, Logger: logger}
}

// Focus runs whenever the screen comes into view. It only hits the backend
// when the cached list is missing or stale.
func (s *Screen) Focus(ctx context.Context) Snapshot {
	s.set(Snapshot{State: Loading, Items: s.Snapshot().Items})
	rides, err := cache.Query(ctx, s.Cache, cache.RideListKey, s.API.ListCustomerRides)
	if err != nil {
		s.Logger.Error("loading rides", "status_code", api.StatusCode(err), "error", err)
		return s.set(Snapshot{State: Error, Message: MsgLoadFailed})
	}
	items := make([]Item, 0, len(rides))
	for _, r := range rides {
		items = append(items, itemFor(r))
	}
	return s.set(Snapshot{State: Loaded, Items: items})
}

func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Open navigates to the detail screen for id.
func (s *Screen) Open(id string) ui.Route {
	r := ui.RideDetailRoute(id)
	s.Nav.Push(r)
	return r
}

func (s *Screen) set(snap Snapshot) Snapshot {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return snap
}
