package ridedetail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/eta"
	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/logging"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/ui"
)

type fakeAPI struct {
	mu        sync.Mutex
	ride      *models.Ride
	getErr    error
	patchErr  error
	gets      int
	patches   []models.RideStatus
	patchHold chan struct{}
}

func (f *fakeAPI) GetRide(_ context.Context, id string) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	r := *f.ride
	return &r, nil
}

func (f *fakeAPI) UpdateRideStatus(ctx context.Context, id string, status models.RideStatus) (*models.Ride, error) {
	if f.patchHold != nil {
		select {
		case <-f.patchHold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, status)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.ride.Status = status
	r := *f.ride
	return &r, nil
}

type harness struct {
	api    *fakeAPI
	cache  *cache.Cache
	nav    *ui.RecordingNavigator
	notes  *ui.RecordingNotifier
	events *ingest.Recorder
}

func newScreen(id string, ride *models.Ride) (*Screen, *harness) {
	h := &harness{
		api:    &fakeAPI{ride: ride},
		cache:  cache.New(0),
		nav:    &ui.RecordingNavigator{},
		notes:  &ui.RecordingNotifier{},
		events: &ingest.Recorder{},
	}
	s := New(id, Deps{
		API:       h.api,
		Cache:     h.cache,
		Nav:       h.nav,
		Notifier:  h.notes,
		Events:    h.events,
		Estimator: &eta.Estimator{SpeedMps: 10},
		Logger:    logging.Discard(),
	})
	return s, h
}

func pendingRide() *models.Ride {
	return &models.Ride{
		ID:                 "r1",
		Driver:             &models.Party{ID: "d1", FirstName: "Jane", LastName: "Doe", PhoneNumber: "0700"},
		PickupLocation:     "CBD",
		DropoffLocation:    "Karen",
		PickupCoordinates:  &models.Coord{Latitude: -1.28, Longitude: 36.82},
		DropoffCoordinates: &models.Coord{Latitude: -1.32, Longitude: 36.70},
		PassengerNumber:    2,
		Status:             models.RidePending,
		RequestedAt:        time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestEmptyIDIsInvalid(t *testing.T) {
	s, h := newScreen("", pendingRide())
	v := s.Load(context.Background())
	if v.State != Invalid || v.Message != MsgInvalidID {
		t.Fatalf("unexpected view %+v", v)
	}
	if h.api.gets != 0 {
		t.Fatalf("expected no fetch, got %d", h.api.gets)
	}
	if err := s.Cancel(context.Background()); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
}

func TestLoadRendersRide(t *testing.T) {
	s, _ := newScreen("r1", pendingRide())
	v := s.Load(context.Background())
	if v.State != Loaded {
		t.Fatalf("expected loaded, got %v", v.State)
	}
	if v.DriverName != "Jane Doe" || v.DriverPhone != "0700" || v.Passengers != "2" {
		t.Fatalf("unexpected fields %+v", v)
	}
	if v.StatusColor != "orange" {
		t.Fatalf("expected orange, got %s", v.StatusColor)
	}
	if !v.Map.PickupMarker || !v.Map.DropoffMarker || !v.Map.Polyline || v.Map.Delta != 0.05 {
		t.Fatalf("unexpected map %+v", v.Map)
	}
	if v.Map.Center != v.PickupPoint {
		t.Fatalf("map should center on pickup")
	}
	if v.DistanceMeters <= 0 || v.EstimateSeconds <= 0 {
		t.Fatalf("expected distance and estimate, got %f %f", v.DistanceMeters, v.EstimateSeconds)
	}
	if v.Action.Kind != ActionButton || !v.Action.Enabled || v.Action.Label != LabelCancel {
		t.Fatalf("unexpected action %+v", v.Action)
	}
}

func TestLoadPlaceholdersAndMissingCoordinates(t *testing.T) {
	s, _ := newScreen("r1", &models.Ride{ID: "r1", Status: models.RideAccepted})
	v := s.Load(context.Background())
	if v.DriverName != " " || v.DriverPhone != "-" || v.Pickup != "-" || v.Passengers != "-" || v.RequestedAt != "-" {
		t.Fatalf("expected placeholders, got %+v", v)
	}
	if v.Map.PickupMarker || v.Map.DropoffMarker || v.Map.Polyline {
		t.Fatalf("expected no map overlays, got %+v", v.Map)
	}
	if v.DistanceMeters != 0 || v.EstimateSeconds != 0 {
		t.Fatalf("expected no estimate")
	}
	if v.StatusColor != "green" {
		t.Fatalf("expected green, got %s", v.StatusColor)
	}
}

func TestActionFor(t *testing.T) {
	cases := []struct {
		status models.RideStatus
		want   Action
	}{
		{models.RidePending, Action{Kind: ActionButton, Enabled: true, Label: LabelCancel}},
		{models.RideAccepted, Action{Kind: ActionButton, Enabled: true, Label: LabelCancel}},
		{models.RideRejected, Action{Kind: ActionButton, Label: LabelCancelled}},
		{models.RideCompleted, Action{Kind: ActionMessage, Message: MsgCompleted}},
		{"Unknown", Action{Kind: ActionButton, Label: LabelCancelled}},
	}
	for _, c := range cases {
		if got := ActionFor(c.status); got != c.want {
			t.Errorf("%s: got %+v want %+v", c.status, got, c.want)
		}
	}
}

func TestLoadFailure(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	h.api.getErr = &api.Error{Op: "fetch ride", StatusCode: 500, Message: "boom"}
	v := s.Load(context.Background())
	if v.State != Error || v.Message != MsgLoadFailed {
		t.Fatalf("unexpected view %+v", v)
	}
	if err := s.Cancel(context.Background()); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
}

func TestLoadUsesCacheUntilInvalidated(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	s.Load(context.Background())
	s.Load(context.Background())
	if h.api.gets != 1 {
		t.Fatalf("expected 1 fetch, got %d", h.api.gets)
	}
	h.cache.InvalidateRides()
	s.Load(context.Background())
	if h.api.gets != 2 {
		t.Fatalf("expected refetch after invalidation, got %d", h.api.gets)
	}
	s.Refresh(context.Background())
	if h.api.gets != 3 {
		t.Fatalf("expected refresh to fetch, got %d", h.api.gets)
	}
}

func TestCancelSuccess(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	s.Load(context.Background())
	h.cache.Set(cache.RideListKey, []models.Ride{*pendingRide()})

	if err := s.Cancel(context.Background()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(h.api.patches) != 1 || h.api.patches[0] != models.RideRejected {
		t.Fatalf("expected one Rejected patch, got %v", h.api.patches)
	}
	notes := h.notes.Notices()
	if len(notes) != 1 || notes[0].Message != MsgCancelled || notes[0].Duration != ui.Short {
		t.Fatalf("unexpected notices %+v", notes)
	}
	routes := h.nav.Routes()
	if len(routes) != 1 || routes[0] != ui.RouteMyRides {
		t.Fatalf("unexpected routes %v", routes)
	}
	for _, k := range []cache.Key{cache.RideListKey, cache.RideDetailKey("r1")} {
		if e, _ := h.cache.Get(k); !e.Stale {
			t.Fatalf("expected %v stale", k)
		}
	}
	if evts := h.events.Events; len(evts) != 1 || evts[0].Type != models.EventRideCancelled {
		t.Fatalf("unexpected events %+v", evts)
	}
}

func TestCancelFailureKeepsView(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	before := s.Load(context.Background())
	h.api.patchErr = &api.Error{Op: "update ride status", StatusCode: 409, Message: "conflict"}

	if err := s.Cancel(context.Background()); api.StatusCode(err) != 409 {
		t.Fatalf("expected 409 error, got %v", err)
	}
	after := s.View()
	if after.State != Loaded || after.Status != before.Status || !after.Action.Enabled {
		t.Fatalf("view changed after failed cancel: %+v", after)
	}
	notes := h.notes.Notices()
	if len(notes) != 1 || notes[0].Message != MsgCancelFailed {
		t.Fatalf("unexpected notices %+v", notes)
	}
	if len(h.nav.Routes()) != 0 {
		t.Fatalf("expected no navigation")
	}
	if h.api.gets != 1 {
		t.Fatalf("failed cancel should not refetch, got %d gets", h.api.gets)
	}
}

func TestCancelNotOfferedForFinalStates(t *testing.T) {
	for _, st := range []models.RideStatus{models.RideRejected, models.RideCompleted} {
		r := pendingRide()
		r.Status = st
		s, h := newScreen("r1", r)
		s.Load(context.Background())
		if err := s.Cancel(context.Background()); err != ErrNotCancellable {
			t.Fatalf("%s: expected ErrNotCancellable, got %v", st, err)
		}
		if len(h.api.patches) != 0 {
			t.Fatalf("%s: expected no patch", st)
		}
	}
}

func TestCancelSingleFlight(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	s.Load(context.Background())
	h.api.patchHold = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.Cancel(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for {
		s.mu.Lock()
		busy := s.cancelling
		s.mu.Unlock()
		if busy {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cancel never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Cancel(context.Background()); err != ErrCancelInFlight {
		t.Fatalf("expected ErrCancelInFlight, got %v", err)
	}
	close(h.api.patchHold)
	if err := <-done; err != nil {
		t.Fatalf("first cancel: %v", err)
	}
}

func TestUnmountDuringCancelIsSilent(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	s.Mount(context.Background())
	s.Load(context.Background())
	h.api.patchHold = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.Cancel(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	s.Unmount()
	if err := <-done; err == nil {
		t.Fatal("expected cancelled call to fail")
	}
	if len(h.notes.Notices()) != 0 || len(h.nav.Routes()) != 0 {
		t.Fatalf("expected no side effects after unmount")
	}
}

type fakeFeed struct {
	ch chan models.StatusEvent
}

func (f *fakeFeed) Subscribe(context.Context, string) (Subscription, error) { return f, nil }
func (f *fakeFeed) Events() <-chan models.StatusEvent                       { return f.ch }
func (f *fakeFeed) Close() error                                            { return nil }

func TestTrackReloadsOnStatusEvent(t *testing.T) {
	s, h := newScreen("r1", pendingRide())
	s.Load(context.Background())

	feed := &fakeFeed{ch: make(chan models.StatusEvent, 2)}
	h.api.mu.Lock()
	h.api.ride.Status = models.RideAccepted
	h.api.mu.Unlock()
	feed.ch <- models.StatusEvent{Type: "ride_status", RideID: "other", Status: models.RideCompleted}
	feed.ch <- models.StatusEvent{Type: "ride_status", RideID: "r1", Status: models.RideAccepted}
	close(feed.ch)

	if err := s.Track(context.Background(), feed); err != nil {
		t.Fatalf("track: %v", err)
	}
	if v := s.View(); v.Status != string(models.RideAccepted) {
		t.Fatalf("expected reload to Accepted, got %s", v.Status)
	}
	if h.api.gets != 2 {
		t.Fatalf("expected one reload, got %d gets", h.api.gets)
	}
}

func TestRenderCalledOnApply(t *testing.T) {
	var got []State
	s := New("r1", Deps{
		API:      &fakeAPI{ride: pendingRide()},
		Nav:      &ui.RecordingNavigator{},
		Notifier: &ui.RecordingNotifier{},
		Logger:   logging.Discard(),
		Render:   func(v View) { got = append(got, v.State) },
	})
	s.Load(context.Background())
	if len(got) != 1 || got[0] != Loaded {
		t.Fatalf("unexpected renders %v", got)
	}
}
