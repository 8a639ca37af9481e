// Command rider is a terminal customer client for the ride backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-customer/internal/config"
	"github.com/example/ride-customer/internal/logging"
)

const usage = `usage: rider <command> [flags]

commands:
  start                       check the stored session and route
  login -token T              store a session token
  logout                      forget the session token
  drivers                     list online drivers
  request -driver ID -pickup P -dropoff D -passengers N
  rides                       list your rides
  ride ID                     show one ride
  cancel ID                   cancel a pending or accepted ride
  track ID                    follow a ride's status live
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFile, stderr)
	slog.SetDefault(logger)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger, stdout)
	defer a.Close()

	if err := dispatch(ctx, a, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		logger.Debug("command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}
