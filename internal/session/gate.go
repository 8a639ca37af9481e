package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/ui"
)

// Gate runs the launch-time session check once and routes to either the
// authenticated area or sign-in.
type Gate struct {
	Store  TokenStore
	Nav    ui.Navigator
	Events ingest.Publisher // optional
	Logger *slog.Logger

	once  sync.Once
	route ui.Route
	err   error
}

// Run reads the stored token and navigates. On a storage failure it logs
// and does not navigate at all, leaving the splash view in place. Later
// calls return the first result without touching storage again.
func (g *Gate) Run(ctx context.Context) (ui.Route, error) {
	g.once.Do(func() {
		_, ok, err := g.Store.Token(ctx)
		if err != nil {
			g.logger().Error("checking auth state", "error", err)
			g.err = err
			return
		}
		g.route = ui.RouteSignIn
		if ok {
			g.route = ui.RouteHome
		}
		g.Nav.Replace(g.route)
		ingest.Emit(ctx, g.Events, g.logger(), models.ClientEvent{
			Type:  models.EventSessionRouted,
			Attrs: map[string]string{"route": string(g.route)},
		})
	})
	return g.route, g.err
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
