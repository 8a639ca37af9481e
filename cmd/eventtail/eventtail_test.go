package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-customer/internal/logging"
	"github.com/example/ride-customer/internal/models"
)

// fakeRecorder implements RedisRecorder for tests
type fakeRecorder struct {
	fail  int // number of times to fail HSet before succeeding
	calls int
	keys  []string
}

func (f *fakeRecorder) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.calls++
	f.keys = append(f.keys, key)
	if f.calls <= f.fail {
		return errors.New("hset fail")
	}
	return nil
}

var evt = models.ClientEvent{ID: "e1", Type: models.EventRideCancelled, RideID: "r1", At: time.Now()}

func TestRecordWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeRecorder{fail: 1}
	start := time.Now()
	if err := recordWithRetry(context.Background(), f, evt, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.keys[0] != "ride:events:r1" {
		t.Fatalf("unexpected key %q", f.keys[0])
	}
}

func TestRecordWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeRecorder{fail: 5}
	if err := recordWithRetry(context.Background(), f, evt, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
}

func TestHandleSkipsInvalidAndRideless(t *testing.T) {
	f := &fakeRecorder{}
	logger := logging.Discard()
	handle(context.Background(), logger, f, []byte("{not json"))
	handle(context.Background(), logger, f, []byte(`{"id":"e2","type":"session_routed"}`))
	if f.calls != 0 {
		t.Fatalf("expected no redis writes, got %d", f.calls)
	}
	handle(context.Background(), logger, f, []byte(`{"id":"e3","type":"ride_requested","ride_id":"r2"}`))
	if f.calls != 1 || f.keys[0] != "ride:events:r2" {
		t.Fatalf("expected one write for r2, got %v", f.keys)
	}
}
