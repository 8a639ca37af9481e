package ui

import (
	"context"
	"testing"
	"time"
)

func TestScopeCloseCancelsAndWaits(t *testing.T) {
	s := NewScope(context.Background())
	done := make(chan struct{})
	started := make(chan struct{})
	s.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		close(done)
	})
	<-started
	s.Close()
	select {
	case <-done:
	default:
		t.Fatal("Close returned before the goroutine finished")
	}
	if s.Alive() {
		t.Fatal("scope still alive after Close")
	}
	if s.Go(func(context.Context) { t.Error("ran after close") }) {
		t.Fatal("Go accepted work after Close")
	}
	s.Close()
}

func TestRecorders(t *testing.T) {
	var nav RecordingNavigator
	nav.Replace(RouteHome)
	nav.Push(RideDetailRoute("r1"))
	got := nav.Routes()
	if len(got) != 2 || got[1] != "/(tabs)/my-rides/ride-details/r1" {
		t.Fatalf("routes = %v", got)
	}
	var n RecordingNotifier
	n.Show("hi", Long)
	if ns := n.Notices(); len(ns) != 1 || ns[0].Duration != Long {
		t.Fatalf("notices = %v", ns)
	}
}
