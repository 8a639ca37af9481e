// Package directory builds the list of drivers a customer can pick when
// requesting a ride.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/models"
)

// Eligible keeps online drivers in backend order.
func Eligible(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleDriver && u.Status == models.UserOnline {
			out = append(out, u)
		}
	}
	return out
}

type Option struct {
	Label string
	Value string
}

func Options(drivers []models.User) []Option {
	out := make([]Option, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, Option{Label: d.FullName(), Value: d.ID})
	}
	return out
}

type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

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

const NoDriversMessage = "No drivers are currently online."

type Snapshot struct {
	State   State
	Options []Option
	Err     error
}

// Empty reports a successful load with nobody to pick; the form shows
// NoDriversMessage and no selection control.
func (s Snapshot) Empty() bool { return s.State == Loaded && len(s.Options) == 0 }

// Has reports whether id is one of the offered drivers.
func (s Snapshot) Has(id string) bool {
	for _, o := range s.Options {
		if o.Value == id {
			return true
		}
	}
	return false
}

type Directory struct {
	Lister UserLister
	Cache  *cache.Cache
	Logger *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// New builds a directory. A nil cache gets a private one.
func New(l UserLister, c *cache.Cache, logger *slog.Logger) *Directory {
	if c == nil {
		c = cache.New(0)
	}
	return &Directory{Lister: l, Cache: c, Logger: logger}
}

// Load reads the directory through the cache.
func (d *Directory) Load(ctx context.Context) Snapshot {
	return d.load(ctx, false)
}

// Retry skips the cache and asks the backend again.
func (d *Directory) Retry(ctx context.Context) Snapshot {
	return d.load(ctx, true)
}

func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

func (d *Directory) load(ctx context.Context, force bool) Snapshot {
	d.set(Snapshot{State: Loading})
	query := cache.Query[[]models.User]
	if force {
		query = cache.Fetch[[]models.User]
	}
	users, err := query(ctx, d.Cache, cache.DriverDirectoryKey, d.Lister.ListUsers)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Error("loading driver directory", "error", err)
		}
		return d.set(Snapshot{State: Error, Err: err})
	}
	return d.set(Snapshot{State: Loaded, Options: Options(Eligible(users))})
}

func (d *Directory) set(s Snapshot) Snapshot {
	d.mu.Lock()
	d.snap = s
	d.mu.Unlock()
	return s
}
