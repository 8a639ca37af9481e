package eta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ride-customer/internal/models"
)

type fakeRouter struct {
	v     float64
	err   error
	calls int
}

func (f *fakeRouter) EstimateSeconds(context.Context, models.Coord, models.Coord) (float64, error) {
	f.calls++
	return f.v, f.err
}

var (
	from = models.Coord{Latitude: -1.28, Longitude: 36.82}
	to   = models.Coord{Latitude: -1.30, Longitude: 36.78}
)

func TestEstimatorCachesRouterResult(t *testing.T) {
	r := &fakeRouter{v: 420}
	e := &Estimator{Client: r, Cache: NewCache(time.Minute), SpeedMps: 10}
	for i := 0; i < 2; i++ {
		if got := e.Estimate(context.Background(), from, to); got != 420 {
			t.Fatalf("got %f", got)
		}
	}
	if r.calls != 1 {
		t.Fatalf("expected one router call, got %d", r.calls)
	}
}

func TestEstimatorFallsBack(t *testing.T) {
	e := &Estimator{Client: &fakeRouter{err: errors.New("down")}, SpeedMps: 10}
	want := EstimateSeconds(from, to, 10)
	if got := e.Estimate(context.Background(), from, to); got != want || got <= 0 {
		t.Fatalf("got %f want %f", got, want)
	}
}

func TestOSRMClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":123.5}]}`))
	}))
	defer srv.Close()
	got, err := NewOSRMClient(srv.URL).EstimateSeconds(context.Background(), from, to)
	if err != nil || got != 123.5 {
		t.Fatalf("got %f, %v", got, err)
	}
}
