package rideform

import (
	"math"
	"strconv"
	"strings"
)

const (
	MsgFillAllFields   = "Please fill in all fields"
	MsgPassengerNumber = "Passenger number must be a valid number"
	MsgRequested       = "Ride requested successfully"
	MsgRequestFailed   = "Failed to request ride"
	maxPassengerNumber = 1 << 16
)

// Form is the editable state of the request screen. Every field is raw
// user input.
type Form struct {
	DriverID        string
	PickupLocation  string
	DropoffLocation string
	PassengerNumber string
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Validate applies the submission rules in order: every field present,
// then a positive whole passenger count. It returns the parsed count.
func Validate(f Form) (int, error) {
	switch {
	case f.DriverID == "":
		return 0, &ValidationError{Field: "driverId", Message: MsgFillAllFields}
	case strings.TrimSpace(f.PickupLocation) == "":
		return 0, &ValidationError{Field: "pickupLocation", Message: MsgFillAllFields}
	case strings.TrimSpace(f.PassengerNumber) == "":
		return 0, &ValidationError{Field: "passengerNumber", Message: MsgFillAllFields}
	case strings.TrimSpace(f.DropoffLocation) == "":
		return 0, &ValidationError{Field: "dropoffLocation", Message: MsgFillAllFields}
	}
	n, ok := parsePassengers(f.PassengerNumber)
	if !ok {
		return 0, &ValidationError{Field: "passengerNumber", Message: MsgPassengerNumber}
	}
	return n, nil
}

func parsePassengers(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > maxPassengerNumber {
		return 0, false
	}
	return int(f), true
}
