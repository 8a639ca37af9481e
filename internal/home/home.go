// Package home is the landing screen after sign-in. It greets the user and
// links to the ride request form.
package home

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/ui"
)

const (
	MsgLoadFailed = "Failed to load your profile."
	LabelRequest  = "Request a Ride"
)

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

type ProfileGetter interface {
	GetProfile(ctx context.Context) (*models.User, error)
}

type Snapshot struct {
	State   State
	User    *models.User
	Message string
}

type Screen struct {
	Profiles ProfileGetter
	Cache    *cache.Cache
	Nav      ui.Navigator
	Logger   *slog.Logger

	mu   sync.Mutex
	snap Snapshot
}

func New(p ProfileGetter, c *cache.Cache, nav ui.Navigator, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(0)
	}
	return &Screen{Profiles: p, Cache: c, Nav: nav, Logger: logger}
}

// Load reads the profile through the cache. The screen stays Loading until
// it resolves.
func (s *Screen) Load(ctx context.Context) Snapshot {
	s.set(Snapshot{State: Loading})
	u, err := cache.Query(ctx, s.Cache, cache.ProfileKey, s.Profiles.GetProfile)
	if err != nil || u == nil {
		s.Logger.Error("loading profile", "status_code", api.StatusCode(err), "error", err)
		return s.set(Snapshot{State: Error, Message: MsgLoadFailed})
	}
	return s.set(Snapshot{State: Loaded, User: u})
}

func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// RequestRide opens the ride request form.
func (s *Screen) RequestRide() ui.Route {
	s.Nav.Push(ui.RouteRequest)
	return ui.RouteRequest
}

func (s *Screen) set(snap Snapshot) Snapshot {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return snap
}
