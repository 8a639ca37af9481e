package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/ride-customer/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Migrate executes the SQL file at path.
func (p *PostgresStore) Migrate(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("apply migration %s: %w", path, err)
	}
	return nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

const rideColumns = `id, driver_id, customer_id, pickup_location, dropoff_location,
	pickup_lat, pickup_lon, dropoff_lat, dropoff_lon, passenger_number, status, requested_at`

func (p *PostgresStore) CreateRide(ctx context.Context, r *models.Ride) error {
	plat, plon := nullCoord(r.PickupCoordinates)
	dlat, dlon := nullCoord(r.DropoffCoordinates)
	_, err := p.db.ExecContext(ctx, `INSERT INTO rides(`+rideColumns+`, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.ID, partyID(r.Driver), partyID(r.Customer), r.PickupLocation, r.DropoffLocation,
		plat, plon, dlat, dlon, r.PassengerNumber, string(r.Status), r.RequestedAt, time.Now().UTC())
	return err
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id=$1`, id)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (p *PostgresStore) ListRidesByCustomer(ctx context.Context, customerID string) ([]models.Ride, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE customer_id=$1 ORDER BY requested_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Ride, 0)
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpdateRideStatus(ctx context.Context, id string, status models.RideStatus) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `UPDATE rides SET status=$1, updated_at=$2 WHERE id=$3 RETURNING `+rideColumns,
		string(status), time.Now().UTC(), id)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRide(s scanner) (*models.Ride, error) {
	var (
		r                      models.Ride
		driverID, customerID   string
		plat, plon, dlat, dlon sql.NullFloat64
		status                 string
	)
	if err := s.Scan(&r.ID, &driverID, &customerID, &r.PickupLocation, &r.DropoffLocation,
		&plat, &plon, &dlat, &dlon, &r.PassengerNumber, &status, &r.RequestedAt); err != nil {
		return nil, err
	}
	r.Driver = &models.Party{ID: driverID}
	r.Customer = &models.Party{ID: customerID}
	r.Status = models.RideStatus(status)
	r.PickupCoordinates = coordFrom(plat, plon)
	r.DropoffCoordinates = coordFrom(dlat, dlon)
	return &r, nil
}

func nullCoord(c *models.Coord) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Latitude, Valid: true}, sql.NullFloat64{Float64: c.Longitude, Valid: true}
}

func coordFrom(lat, lon sql.NullFloat64) *models.Coord {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &models.Coord{Latitude: lat.Float64, Longitude: lon.Float64}
}

func partyID(p *models.Party) string {
	if p == nil {
		return ""
	}
	return p.ID
}
