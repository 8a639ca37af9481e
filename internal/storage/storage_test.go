package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/example/ride-customer/internal/models"
)

var req = models.RideRequest{DriverID: "d-001", PickupLocation: "CBD", DropoffLocation: "Somewhere", PassengerNumber: 2}

func exerciseStore(t *testing.T, s RideStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	customer := "c-" + strconv.FormatInt(now.UnixNano(), 36)
	first := NewRide(customer, req, now.Add(-time.Minute))
	second := NewRide(customer, req, now)
	other := NewRide("c-002", req, now)
	for _, r := range []*models.Ride{first, second, other} {
		if err := s.CreateRide(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.GetRide(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.RidePending || got.Driver.ID != "d-001" || got.Customer.ID != customer {
		t.Fatalf("unexpected ride %+v", got)
	}
	if got.PickupCoordinates == nil || got.DropoffCoordinates != nil {
		t.Fatalf("expected pickup coordinates only, got %+v %+v", got.PickupCoordinates, got.DropoffCoordinates)
	}

	list, err := s.ListRidesByCustomer(ctx, customer)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	updated, err := s.UpdateRideStatus(ctx, first.ID, models.RideRejected)
	if err != nil || updated.Status != models.RideRejected {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if _, err := s.GetRide(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateRideStatus(ctx, "missing", models.RideRejected); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx, filepath.Join("..", "..", "migrations", "001_create_rides.sql")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exerciseStore(t, s)
}

func TestLocate(t *testing.T) {
	if c := Locate("  Westlands "); c == nil || !c.Present() {
		t.Fatalf("expected Westlands to resolve, got %v", c)
	}
	if Locate("Atlantis") != nil {
		t.Fatal("unknown place should not resolve")
	}
}
