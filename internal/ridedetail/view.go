package ridedetail

import (
	"strconv"

	"github.com/example/ride-customer/internal/models"
)

type State int

const (
	Invalid State = iota
	Loading
	Error
	Loaded
)

func (s State) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Error:
		return "error"
	case Loaded:
		return "loaded"
	default:
		return "loading"
	}
}

const (
	MsgInvalidID     = "Invalid ride ID. Please try again."
	MsgLoadFailed    = "Failed to load ride details. Please try again later."
	MsgCompleted     = "The ride has been completed successfully!"
	MsgCancelled     = "Ride Cancelled"
	MsgCancelFailed  = "Failed to update ride status. Please try again."
	LabelCancel      = "Cancel Ride"
	LabelCancelled   = "Ride Cancelled"
	mapDelta         = 0.05
	placeholder      = "-"
	requestedAtStyle = "2006-01-02 15:04:05"
)

type ActionKind int

const (
	// ActionButton is the cancel control, enabled or not.
	ActionButton ActionKind = iota
	// ActionMessage replaces the control with a static message.
	ActionMessage
)

type Action struct {
	Kind    ActionKind
	Enabled bool
	Label   string
	Message string
}

// ActionFor maps a ride status to what the bottom of the screen offers.
func ActionFor(s models.RideStatus) Action {
	switch {
	case s == models.RideCompleted:
		return Action{Kind: ActionMessage, Message: MsgCompleted}
	case s.Actionable():
		return Action{Kind: ActionButton, Enabled: true, Label: LabelCancel}
	default:
		return Action{Kind: ActionButton, Enabled: false, Label: LabelCancelled}
	}
}

type MapView struct {
	Center        models.Coord
	Delta         float64
	PickupMarker  bool
	DropoffMarker bool
	Polyline      bool
}

type View struct {
	State   State
	Message string
	Ride    *models.Ride

	DriverName  string
	DriverPhone string
	Pickup      string
	Dropoff     string
	Passengers  string
	Status      string
	StatusColor string
	RequestedAt string

	PickupPoint  models.Coord
	DropoffPoint models.Coord
	Map          MapView

	// Set only when both endpoints have coordinates.
	DistanceMeters  float64
	EstimateSeconds float64

	Action Action
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func buildView(r *models.Ride) View {
	pickup, dropoff := r.PickupPoint(), r.DropoffPoint()
	v := View{
		State:        Loaded,
		Ride:         r,
		DriverName:   r.Driver.FullName(),
		DriverPhone:  placeholder,
		Pickup:       orPlaceholder(r.PickupLocation),
		Dropoff:      orPlaceholder(r.DropoffLocation),
		Passengers:   placeholder,
		Status:       orPlaceholder(string(r.Status)),
		StatusColor:  r.Status.Color(),
		RequestedAt:  placeholder,
		PickupPoint:  pickup,
		DropoffPoint: dropoff,
		Map: MapView{
			Center:        pickup,
			Delta:         mapDelta,
			PickupMarker:  pickup.Present(),
			DropoffMarker: dropoff.Present(),
			Polyline:      pickup.Latitude != 0 && dropoff.Latitude != 0,
		},
		Action: ActionFor(r.Status),
	}
	if r.Driver != nil && r.Driver.PhoneNumber != "" {
		v.DriverPhone = r.Driver.PhoneNumber
	}
	if r.PassengerNumber != 0 {
		v.Passengers = strconv.Itoa(r.PassengerNumber)
	}
	if !r.RequestedAt.IsZero() {
		v.RequestedAt = r.RequestedAt.Local().Format(requestedAtStyle)
	}
	return v
}
