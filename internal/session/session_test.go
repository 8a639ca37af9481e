package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/logging"
	"github.com/example/ride-customer/internal/ui"
)

type countingStore struct {
	TokenStore
	reads int
}

func (c *countingStore) Token(ctx context.Context) (string, bool, error) {
	c.reads++
	return c.TokenStore.Token(ctx)
}

func TestGateRoutes(t *testing.T) {
	cases := []struct {
		token string
		want  ui.Route
	}{
		{"abc", ui.RouteHome},
		{"", ui.RouteSignIn},
	}
	for _, c := range cases {
		nav := &ui.RecordingNavigator{}
		store := &countingStore{TokenStore: NewMemoryStore(c.token)}
		events := &ingest.Recorder{}
		g := &Gate{Store: store, Nav: nav, Events: events, Logger: logging.Discard()}
		for i := 0; i < 2; i++ {
			got, err := g.Run(context.Background())
			if err != nil || got != c.want {
				t.Fatalf("token %q: got %s, %v", c.token, got, err)
			}
		}
		if routes := nav.Routes(); len(routes) != 1 || routes[0] != c.want {
			t.Fatalf("token %q: navigations %v", c.token, routes)
		}
		if store.reads != 1 {
			t.Fatalf("gate should read storage once, read %d times", store.reads)
		}
		if len(events.Events) != 1 || events.Events[0].Attrs["route"] != string(c.want) {
			t.Fatalf("token %q: events %+v", c.token, events.Events)
		}
	}
}

func TestGateStorageFailureStaysPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	nav := &ui.RecordingNavigator{}
	g := &Gate{Store: NewFileStore(path, "session_token"), Nav: nav, Logger: logging.Discard()}
	route, err := g.Run(context.Background())
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if route != "" || len(nav.Routes()) != 0 {
		t.Fatalf("gate should not navigate on storage failure: %q %v", route, nav.Routes())
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"), "session_token")
	if _, ok, err := s.Token(ctx); ok || err != nil {
		t.Fatalf("missing file should mean no token: ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if tok, ok, _ := s.Token(ctx); !ok || tok != "t1" {
		t.Fatalf("got %q %v", tok, ok)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Token(ctx); ok {
		t.Fatal("token should be cleared")
	}
}

type fakeRedis struct {
	redis.Cmdable
	vals map[string]string
	err  error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.vals[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.vals, k)
	}
	return redis.NewIntResult(int64(len(keys)), f.err)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	f := &fakeRedis{vals: map[string]string{}}
	s := NewRedisStoreFromClient(f, "session_token")
	if _, ok, err := s.Token(ctx); ok || err != nil {
		t.Fatalf("redis.Nil should mean no token: %v %v", ok, err)
	}
	_ = s.Save(ctx, "t2")
	if tok, ok, _ := s.Token(ctx); !ok || tok != "t2" {
		t.Fatalf("got %q", tok)
	}
	_ = s.Clear(ctx)
	if _, ok, _ := s.Token(ctx); ok {
		t.Fatal("expected cleared")
	}

	f.err = errors.New("connection refused")
	if _, _, err := s.Token(ctx); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
