package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type Coord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Present reports whether both axes are set. Markers are only drawn for
// present points.
func (c Coord) Present() bool { return c.Latitude != 0 && c.Longitude != 0 }

const (
	RoleDriver   = "Driver"
	RoleCustomer = "Customer"

	UserOnline  = "Online"
	UserOffline = "Offline"
)

type User struct {
	ID          string `json:"_id" validate:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// Party is a driverId/customerId reference on a ride. The backend either
// expands it into the user document or leaves the bare id.
type Party struct {
	ID          string `json:"_id,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
	Gender      string `json:"gender,omitempty"`
	County      string `json:"county,omitempty"`
	SubCounty   string `json:"subCounty,omitempty"`
}

func (p *Party) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*p = Party{ID: id}
		return nil
	}
	type plain Party
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Party(v)
	return nil
}

func (p *Party) FullName() string {
	if p == nil {
		return " "
	}
	return p.FirstName + " " + p.LastName
}

type RideStatus string

const (
	RidePending   RideStatus = "Pending"
	RideAccepted  RideStatus = "Accepted"
	RideRejected  RideStatus = "Rejected"
	RideCompleted RideStatus = "Completed"
)

// Actionable reports whether the customer may still cancel the ride.
func (s RideStatus) Actionable() bool { return s == RidePending || s == RideAccepted }

func (s RideStatus) Color() string {
	switch s {
	case RidePending:
		return "orange"
	case RideAccepted:
		return "green"
	case RideRejected:
		return "red"
	default:
		return "#007BFF"
	}
}

type Ride struct {
	ID                 string     `json:"_id" validate:"required"`
	Driver             *Party     `json:"driverId,omitempty"`
	Customer           *Party     `json:"customerId,omitempty"`
	PickupLocation     string     `json:"pickupLocation"`
	DropoffLocation    string     `json:"dropoffLocation"`
	PickupCoordinates  *Coord     `json:"pickupCoordinates,omitempty"`
	DropoffCoordinates *Coord     `json:"dropoffCoordinates,omitempty"`
	PassengerNumber    int        `json:"passengerNumber"`
	Status             RideStatus `json:"status" validate:"required"`
	RequestedAt        time.Time  `json:"requestedAt"`
}

func (r *Ride) PickupPoint() Coord {
	if r.PickupCoordinates == nil {
		return Coord{}
	}
	return *r.PickupCoordinates
}

func (r *Ride) DropoffPoint() Coord {
	if r.DropoffCoordinates == nil {
		return Coord{}
	}
	return *r.DropoffCoordinates
}

// RideRequest is the create-ride body.
type RideRequest struct {
	DriverID        string `json:"driverId" validate:"required"`
	PickupLocation  string `json:"pickupLocation" validate:"required"`
	PassengerNumber int    `json:"passengerNumber" validate:"gt=0"`
	DropoffLocation string `json:"dropoffLocation" validate:"required"`
}

type StatusUpdate struct {
	Status RideStatus `json:"status" validate:"required,oneof=Pending Accepted Rejected Completed"`
}

// StatusEvent is pushed to tracking subscribers when a ride changes.
type StatusEvent struct {
	Type    string     `json:"type"`
	RideID  string     `json:"ride_id"`
	Status  RideStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

const (
	EventSessionRouted = "session_routed"
	EventRideRequested = "ride_requested"
	EventRideCancelled = "ride_cancelled"
)

// ClientEvent records a step of the customer workflow.
type ClientEvent struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	RideID string            `json:"ride_id,omitempty"`
	At     time.Time         `json:"at"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}
