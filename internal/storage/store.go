package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-customer/internal/models"
)

var ErrNotFound = errors.New("ride not found")

// RideStore defines persistence operations for rides. Driver and customer
// are stored as bare ids; callers expand them.
type RideStore interface {
	CreateRide(ctx context.Context, r *models.Ride) error
	GetRide(ctx context.Context, id string) (*models.Ride, error)
	ListRidesByCustomer(ctx context.Context, customerID string) ([]models.Ride, error)
	UpdateRideStatus(ctx context.Context, id string, status models.RideStatus) (*models.Ride, error)
}

// NewRide builds a pending ride for req with a fresh id.
func NewRide(customerID string, req models.RideRequest, now time.Time) *models.Ride {
	return &models.Ride{
		ID:                 uuid.NewString(),
		Driver:             &models.Party{ID: req.DriverID},
		Customer:           &models.Party{ID: customerID},
		PickupLocation:     req.PickupLocation,
		DropoffLocation:    req.DropoffLocation,
		PickupCoordinates:  Locate(req.PickupLocation),
		DropoffCoordinates: Locate(req.DropoffLocation),
		PassengerNumber:    req.PassengerNumber,
		Status:             models.RidePending,
		RequestedAt:        now.UTC(),
	}
}

type MemoryStore struct {
	mu    sync.RWMutex
	rides map[string]models.Ride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]models.Ride)}
}

func (m *MemoryStore) CreateRide(_ context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetRide(_ context.Context, id string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// ListRidesByCustomer returns the newest ride first.
func (m *MemoryStore) ListRidesByCustomer(_ context.Context, customerID string) ([]models.Ride, error) {
	m.mu.RLock()
	out := make([]models.Ride, 0)
	for _, r := range m.rides {
		if r.Customer != nil && r.Customer.ID == customerID {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateRideStatus(_ context.Context, id string, status models.RideStatus) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	m.rides[id] = r
	return &r, nil
}
