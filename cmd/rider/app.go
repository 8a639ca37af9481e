package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/example/ride-customer/internal/api"
	"github.com/example/ride-customer/internal/cache"
	"github.com/example/ride-customer/internal/config"
	"github.com/example/ride-customer/internal/directory"
	"github.com/example/ride-customer/internal/eta"
	"github.com/example/ride-customer/internal/home"
	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/ridedetail"
	"github.com/example/ride-customer/internal/rideform"
	"github.com/example/ride-customer/internal/ridelist"
	"github.com/example/ride-customer/internal/session"
	"github.com/example/ride-customer/internal/tracking"
	"github.com/example/ride-customer/internal/ui"
)

// app holds the collaborators every command shares.
type app struct {
	out    io.Writer
	logger *slog.Logger

	store     session.TokenStore
	api       *api.Client
	cache     *cache.Cache
	nav       ui.Navigator
	notes     ui.Notifier
	events    ingest.Publisher
	estimator *eta.Estimator
	dialer    *tracking.Dialer

	closers []func() error
}

func newApp(cfg config.ClientConfig, logger *slog.Logger, out io.Writer) *app {
	a := &app{
		out:    out,
		logger: logger,
		cache:  cache.New(cfg.CacheStaleAfter),
		nav:    ui.ConsoleNavigator{W: out},
		notes:  ui.ConsoleNotifier{W: out},
		events: ingest.NopPublisher{},
	}

	switch cfg.SessionStore {
	case "redis":
		rs := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionKey)
		a.store = rs
		a.closers = append(a.closers, rs.Close)
	case "memory":
		a.store = session.NewMemoryStore("")
	default:
		a.store = session.NewFileStore(cfg.SessionFile, cfg.SessionKey)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.events = kp
		a.closers = append(a.closers, kp.Close)
	}

	a.api = api.New(api.Config{
		BaseURL:      cfg.APIBaseURL,
		DirectoryURL: cfg.DirectoryBaseURL,
		Timeout:      cfg.HTTPTimeout,
		Tokens:       a.store,
		Logger:       logger,
	})

	a.estimator = &eta.Estimator{Cache: eta.NewCache(5 * time.Minute), SpeedMps: cfg.DefaultSpeedMps, Logger: logger}
	if cfg.OSRMEndpoint != "" {
		a.estimator.Client = eta.NewOSRMClient(cfg.OSRMEndpoint)
	}

	a.dialer = &tracking.Dialer{BaseURL: cfg.TrackingBaseURL, Tokens: a.store, Logger: logger}
	return a
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("closing client resource", "error", err)
		}
	}
}

func (a *app) gate() *session.Gate {
	return &session.Gate{Store: a.store, Nav: a.nav, Events: a.events, Logger: a.logger}
}

func (a *app) homeScreen() *home.Screen {
	return home.New(a.api, a.cache, a.nav, a.logger)
}

func (a *app) directory() *directory.Directory {
	return directory.New(a.api, a.cache, a.logger)
}

func (a *app) requestScreen(dir *directory.Directory) *rideform.Screen {
	return rideform.New(rideform.Deps{
		Creator:   a.api,
		Directory: dir,
		Cache:     a.cache,
		Nav:       a.nav,
		Notifier:  a.notes,
		Events:    a.events,
		Logger:    a.logger,
	})
}

func (a *app) listScreen() *ridelist.Screen {
	return ridelist.New(a.api, a.cache, a.nav, a.logger)
}

func (a *app) detailScreen(id string, render func(ridedetail.View)) *ridedetail.Screen {
	return ridedetail.New(id, ridedetail.Deps{
		API:       a.api,
		Cache:     a.cache,
		Nav:       a.nav,
		Notifier:  a.notes,
		Events:    a.events,
		Estimator: a.estimator,
		Logger:    a.logger,
		Render:    render,
	})
}

func (a *app) subscriber() ridedetail.Subscriber {
	return ridedetail.SubscribeFunc(func(ctx context.Context, rideID string) (ridedetail.Subscription, error) {
		sub, err := a.dialer.Subscribe(ctx, rideID)
		if err != nil {
			return nil, err
		}
		return sub, nil
	})
}
