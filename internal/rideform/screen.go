// Package rideform drives the ride request screen: field editing,
// validation and the single in-flight submission.
package rideform

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/example/ride-customer/internal/directory"
	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/observability"
	"github.com/example/ride-customer/internal/ui"
)

type State int

const (
	Editing State = iota
	Validating
	Submitting
	Success
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	default:
		return "editing"
	}
}

var (
	ErrSubmitInFlight = errors.New("ride request already in flight")
	ErrClosed         = errors.New("ride request screen is closed")
	ErrUnmounted      = errors.New("ride request screen was dismissed")
)

type RideCreator interface {
	CreateRide(ctx context.Context, req models.RideRequest) (*models.Ride, error)
}

// RideInvalidator marks cached ride data stale.
type RideInvalidator interface {
	InvalidateRides() int
}

type Deps struct {
	Creator   RideCreator
	Directory *directory.Directory
	Cache     RideInvalidator
	Nav       ui.Navigator
	Notifier  ui.Notifier
	Events    ingest.Publisher
	Logger    *slog.Logger
}

type Screen struct {
	deps Deps

	mu    sync.Mutex
	form  Form
	state State
	ride  *models.Ride
	scope *ui.Scope
}

func New(d Deps) *Screen {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = ingest.NopPublisher{}
	}
	return &Screen{deps: d}
}

// Mount starts the screen's lifetime and kicks off the driver directory
// load in the background.
func (s *Screen) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.scope == nil {
		s.scope = ui.NewScope(ctx)
	}
	scope := s.scope
	s.mu.Unlock()
	if s.deps.Directory != nil {
		scope.Go(func(ctx context.Context) { s.deps.Directory.Load(ctx) })
	}
}

// Unmount cancels anything the screen still has in flight.
func (s *Screen) Unmount() {
	s.mu.Lock()
	scope := s.scope
	s.mu.Unlock()
	if scope != nil {
		scope.Close()
	}
}

func (s *Screen) Drivers() directory.Snapshot {
	if s.deps.Directory == nil {
		return directory.Snapshot{State: directory.Loaded}
	}
	return s.deps.Directory.Snapshot()
}

func (s *Screen) SetDriver(id string) bool {
	return s.edit(func(f *Form) { f.DriverID = id })
}
func (s *Screen) SetPickup(v string) bool {
	return s.edit(func(f *Form) { f.PickupLocation = v })
}
func (s *Screen) SetDropoff(v string) bool {
	return s.edit(func(f *Form) { f.DropoffLocation = v })
}
func (s *Screen) SetPassengers(v string) bool {
	return s.edit(func(f *Form) { f.PassengerNumber = v })
}

// edit applies fn only while the form is editable.
func (s *Screen) edit(fn func(*Form)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return false
	}
	fn(&s.form)
	return true
}

func (s *Screen) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ride is the created ride once the screen reaches Success.
func (s *Screen) Ride() *models.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ride
}

func (s *Screen) SubmitEnabled() bool { return s.State() == Editing }

func (s *Screen) SubmitLabel() string {
	if s.State() == Submitting {
		return "Submitting..."
	}
	return "Submit"
}

// Submit validates the form and, if it passes, creates the ride. Only one
// submission may be in flight; a failed one returns the screen to Editing
// with the form untouched.
func (s *Screen) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Submitting, Validating:
		s.mu.Unlock()
		return ErrSubmitInFlight
	case Success:
		s.mu.Unlock()
		return ErrClosed
	}
	s.state = Validating
	form := s.form
	n, err := Validate(form)
	if err != nil {
		s.state = Editing
		s.mu.Unlock()
		var verr *ValidationError
		errors.As(err, &verr)
		s.deps.Notifier.Show(verr.Message, ui.Short)
		s.deps.Logger.Error("form validation failed", "field", verr.Field, "error", err)
		observability.RideSubmissions.WithLabelValues(observability.OutcomeRejected).Inc()
		return err
	}
	s.state = Submitting
	scope := s.scope
	s.mu.Unlock()

	req := models.RideRequest{
		DriverID:        form.DriverID,
		PickupLocation:  strings.TrimSpace(form.PickupLocation),
		PassengerNumber: n,
		DropoffLocation: strings.TrimSpace(form.DropoffLocation),
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if scope != nil {
		stop := context.AfterFunc(scope.Context(), cancel)
		defer stop()
	}
	s.deps.Logger.Debug("submitting ride request", "driver_id", req.DriverID, "passengers", req.PassengerNumber)
	ride, err := s.deps.Creator.CreateRide(callCtx, req)

	s.mu.Lock()
	if scope != nil && !scope.Alive() {
		s.state = Editing
		s.mu.Unlock()
		return ErrUnmounted
	}
	if err != nil {
		s.state = Editing
		s.mu.Unlock()
		s.deps.Notifier.Show(MsgRequestFailed, ui.Long)
		s.deps.Logger.Error("failed to request ride", "driver_id", req.DriverID, "error", err)
		observability.RideSubmissions.WithLabelValues(observability.OutcomeFailure).Inc()
		return err
	}
	s.ride = ride
	s.state = Success
	s.mu.Unlock()

	if s.deps.Cache != nil {
		s.deps.Cache.InvalidateRides()
	}
	s.deps.Notifier.Show(MsgRequested, ui.Long)
	s.deps.Nav.Push(ui.RouteMyRides)
	observability.RideSubmissions.WithLabelValues(observability.OutcomeSuccess).Inc()

	evt := models.ClientEvent{
		Type: models.EventRideRequested,
		Attrs: map[string]string{
			"driver_id":  req.DriverID,
			"passengers": strconv.Itoa(req.PassengerNumber),
		},
	}
	if ride != nil {
		evt.RideID = ride.ID
	}
	ingest.Emit(ctx, s.deps.Events, s.deps.Logger, evt)
	return nil
}
