package storage

import (
	"strings"

	"github.com/example/ride-customer/internal/models"
)

// SeedUsers is the fixed user directory served by the dev backend.
func SeedUsers() []models.User {
	return []models.User{
		{ID: "d-001", FirstName: "Jane", LastName: "Wanjiru", Role: models.RoleDriver, Status: models.UserOnline, PhoneNumber: "+254700000001"},
		{ID: "d-002", FirstName: "Peter", LastName: "Otieno", Role: models.RoleDriver, Status: models.UserOffline, PhoneNumber: "+254700000002"},
		{ID: "d-003", FirstName: "Amina", LastName: "Hassan", Role: models.RoleDriver, Status: models.UserOnline, PhoneNumber: "+254700000003"},
		{ID: "c-001", FirstName: "Brian", LastName: "Kamau", Role: models.RoleCustomer, Status: models.UserOnline, Email: "brian@example.com"},
		{ID: "c-002", FirstName: "Grace", LastName: "Njeri", Role: models.RoleCustomer, Status: models.UserOffline, Email: "grace@example.com"},
	}
}

var places = map[string]models.Coord{
	"cbd":        {Latitude: -1.2864, Longitude: 36.8172},
	"westlands":  {Latitude: -1.2676, Longitude: 36.8108},
	"karen":      {Latitude: -1.3197, Longitude: 36.7076},
	"kilimani":   {Latitude: -1.2921, Longitude: 36.7856},
	"jkia":       {Latitude: -1.3192, Longitude: 36.9278},
	"thika road": {Latitude: -1.2195, Longitude: 36.8869},
}

// Locate resolves a known place name to coordinates, or nil.
func Locate(name string) *models.Coord {
	c, ok := places[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	return &c
}
