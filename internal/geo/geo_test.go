package geo

import (
	"math"
	"testing"

	"github.com/example/ride-customer/internal/models"
)

func TestHaversineZero(t *testing.T) {
	d := Haversine(0, 0, 0, 0)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := Distance(models.Coord{Latitude: -1.0, Longitude: 36.8}, models.Coord{Latitude: -2.0, Longitude: 36.8})
	if math.Abs(d-111195) > 100 {
		t.Fatalf("expected ~111.2km, got %f", d)
	}
}
