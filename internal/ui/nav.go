// Package ui holds the screen-level collaborators shared by every screen:
// routes, navigation, transient notices and the screen lifetime scope.
package ui

import (
	"fmt"
	"io"
	"sync"
)

type Route string

const (
	RouteHome    Route = "/(tabs)/home"
	RouteSignIn  Route = "/(auth)/sign-in"
	RouteMyRides Route = "/(tabs)/my-rides"
	RouteRequest Route = "/(screens)/request/request"
)

func RideDetailRoute(id string) Route {
	return Route("/(tabs)/my-rides/ride-details/" + id)
}

// Navigator moves between screens. Replace drops the current screen from
// history, Push keeps it.
type Navigator interface {
	Push(r Route)
	Replace(r Route)
}

// ConsoleNavigator prints each navigation to w.
type ConsoleNavigator struct {
	W io.Writer
}

func (c ConsoleNavigator) Push(r Route)    { fmt.Fprintf(c.W, "-> %s\n", r) }
func (c ConsoleNavigator) Replace(r Route) { fmt.Fprintf(c.W, "=> %s\n", r) }

// RecordingNavigator keeps every navigation in order.
type RecordingNavigator struct {
	mu     sync.Mutex
	routes []Route
}

func (n *RecordingNavigator) Push(r Route)    { n.record(r) }
func (n *RecordingNavigator) Replace(r Route) { n.record(r) }

func (n *RecordingNavigator) record(r Route) {
	n.mu.Lock()
	n.routes = append(n.routes, r)
	n.mu.Unlock()
}

func (n *RecordingNavigator) Routes() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Route(nil), n.routes...)
}
