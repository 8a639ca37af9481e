// Package ridedetail drives the ride detail screen: loading one ride,
// rendering its status and letting the customer cancel it.
package ridedetail

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/eta"
	"github.com/example/ride-customer/internal/geo"
	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/observability"
	"github.com/example/ride-customer/internal/ui"
)

var (
	ErrNotCancellable = errors.New("ride cannot be cancelled in its current state")
	ErrCancelInFlight = errors.New("cancel already in flight")
)

type RideAPI interface {
	GetRide(ctx context.Context, id string) (*models.Ride, error)
	UpdateRideStatus(ctx context.Context, id string, status models.RideStatus) (*models.Ride, error)
}

// Subscriber opens a live status feed for one ride.
type Subscriber interface {
	Subscribe(ctx context.Context, rideID string) (Subscription, error)
}

// SubscribeFunc adapts a plain function to Subscriber.
type SubscribeFunc func(ctx context.Context, rideID string) (Subscription, error)

func (f SubscribeFunc) Subscribe(ctx context.Context, rideID string) (Subscription, error) {
	return f(ctx, rideID)
}

type Subscription interface {
	Events() <-chan models.StatusEvent
	Close() error
}

type Deps struct {
	API       RideAPI
	Cache     *cache.Cache
	Nav       ui.Navigator
	Notifier  ui.Notifier
	Events    ingest.Publisher
	Estimator *eta.Estimator // optional
	Logger    *slog.Logger

	// Render, when set, is called with each view the screen applies.
	Render func(View)
}

type Screen struct {
	id   string
	deps Deps

	mu         sync.Mutex
	view       View
	scope      *ui.Scope
	cancelling bool
}

func New(id string, d Deps) *Screen {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = ingest.NopPublisher{}
	}
	if d.Cache == nil {
		d.Cache = cache.New(0)
	}
	s := &Screen{id: id, deps: d, view: View{State: Loading}}
	if id == "" {
		s.view = View{State: Invalid, Message: MsgInvalidID}
	}
	return s
}

func (s *Screen) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.scope == nil {
		s.scope = ui.NewScope(ctx)
	}
	s.mu.Unlock()
}

func (s *Screen) Unmount() {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	if scope != nil {
		scope.Close()
	}
}

func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Load renders the ride, serving the cached copy when it is still fresh.
func (s *Screen) Load(ctx context.Context) View {
	return s.load(ctx, false)
}

// Refresh always refetches.
func (s *Screen) Refresh(ctx context.Context) View {
	return s.load(ctx, true)
}

func (s *Screen) load(ctx context.Context, force bool) View {
	if s.id == "" {
		return s.View()
	}
	ctx, done := s.bind(ctx)
	defer done()

	s.mu.Lock()
	if s.view.State != Loaded {
		s.view = View{State: Loading}
	}
	s.mu.Unlock()

	query := cache.Query[*models.Ride]
	if force {
		query = cache.Fetch[*models.Ride]
	}
	ride, err := query(ctx, s.deps.Cache, cache.RideDetailKey(s.id), func(ctx context.Context) (*models.Ride, error) {
		return s.deps.API.GetRide(ctx, s.id)
	})

	var v View
	if err != nil || ride == nil {
		s.deps.Logger.Error("loading ride details", "ride_id", s.id, "status_code", api.StatusCode(err), "error", err)
		v = View{State: Error, Message: MsgLoadFailed}
	} else {
		v = buildView(ride)
		s.estimate(ctx, &v)
	}

	s.mu.Lock()
	if !s.alive() {
		v = s.view
		s.mu.Unlock()
		return v
	}
	s.view = v
	s.mu.Unlock()
	if s.deps.Render != nil {
		s.deps.Render(v)
	}
	return v
}

func (s *Screen) estimate(ctx context.Context, v *View) {
	if !v.PickupPoint.Present() || !v.DropoffPoint.Present() {
		return
	}
	v.DistanceMeters = geo.Distance(v.PickupPoint, v.DropoffPoint)
	if s.deps.Estimator != nil {
		v.EstimateSeconds = s.deps.Estimator.Estimate(ctx, v.PickupPoint, v.DropoffPoint)
	}
}

// Cancel asks the backend to reject the ride. Only HTTP 200 counts; on
// anything else the screen keeps showing what it had and does not refetch.
func (s *Screen) Cancel(ctx context.Context) error {
	s.mu.Lock()
	v := s.view
	if v.State != Loaded || !v.Ride.Status.Actionable() {
		s.mu.Unlock()
		return ErrNotCancellable
	}
	if s.cancelling {
		s.mu.Unlock()
		return ErrCancelInFlight
	}
	s.cancelling = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancelling = false
		s.mu.Unlock()
	}()

	ctx, done := s.bind(ctx)
	defer done()

	_, err := s.deps.API.UpdateRideStatus(ctx, s.id, models.RideRejected)
	s.mu.Lock()
	alive := s.alive()
	s.mu.Unlock()
	if !alive {
		return context.Canceled
	}
	if err != nil {
		s.deps.Notifier.Show(MsgCancelFailed, ui.Short)
		s.deps.Logger.Error("cancelling ride", "ride_id", s.id, "status_code", api.StatusCode(err), "error", err)
		observability.RideCancellations.WithLabelValues(observability.OutcomeFailure).Inc()
		return err
	}

	s.deps.Cache.InvalidateRides()
	s.deps.Notifier.Show(MsgCancelled, ui.Short)
	s.deps.Nav.Push(ui.RouteMyRides)
	observability.RideCancellations.WithLabelValues(observability.OutcomeSuccess).Inc()
	ingest.Emit(ctx, s.deps.Events, s.deps.Logger, models.ClientEvent{
		Type:   models.EventRideCancelled,
		RideID: s.id,
		Attrs:  map[string]string{"previous_status": string(v.Ride.Status)},
	})
	return nil
}

// Track follows live status events for the ride until ctx ends, the screen
// is dismissed or the feed closes. Every event for this ride marks the
// cached copy stale and reloads it.
func (s *Screen) Track(ctx context.Context, sub Subscriber) error {
	if s.id == "" {
		return api.ErrInvalidID
	}
	ctx, done := s.bind(ctx)
	defer done()

	feed, err := sub.Subscribe(ctx, s.id)
	if err != nil {
		return err
	}
	defer feed.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-feed.Events():
			if !ok {
				return nil
			}
			if evt.RideID != s.id {
				continue
			}
			s.deps.Logger.Info("ride status changed", "ride_id", s.id, "status", evt.Status)
			s.deps.Cache.Invalidate(cache.RideDetailKey(s.id))
			s.Load(ctx)
		}
	}
}

// bind narrows ctx to the screen's lifetime when it is mounted.
func (s *Screen) bind(ctx context.Context) (context.Context, func()) {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	ctx, cancel := context.WithCancel(ctx)
	if scope == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(scope.Context(), cancel)
	return ctx, func() { stop(); cancel() }
}

// alive must be called with s.mu held.
func (s *Screen) alive() bool { return s.scope == nil || s.scope.Alive() }
