package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-customer/internal/config"
	"github.com/example/ride-customer/internal/ingest"
	"github.com/example/ride-customer/internal/logging"
	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/observability"
)

func main() {
	cfg, err := config.LoadEventTailConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve prometheus metrics on")
	flag.Parse()

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFile, os.Stdout)
	slog.SetDefault(logger)

	var rc *redis.Client
	var recorder RedisRecorder
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		recorder = &redisAdapter{c: rc}
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroup, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		if rc != nil {
			_ = rc.Close()
		}
	}()

	logger.Info("eventtail listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down eventtail")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		handle(ctx, logger, recorder, m.Value)
	}
}

// handle decodes one message, counts it and mirrors ride events to redis.
func handle(ctx context.Context, logger *slog.Logger, rc RedisRecorder, value []byte) {
	evt, err := ingest.Decode(value)
	if err != nil {
		observability.EventsConsumed.WithLabelValues("invalid").Inc()
		logger.Warn("invalid event", "error", err)
		return
	}
	observability.EventsConsumed.WithLabelValues(evt.Type).Inc()
	logger.Info("workflow event", "id", evt.ID, "type", evt.Type, "ride_id", evt.RideID, "at", evt.At, "attrs", evt.Attrs)
	if rc == nil || evt.RideID == "" {
		return
	}
	if err := recordWithRetry(ctx, rc, evt, 3, 200*time.Millisecond); err != nil {
		logger.Error("redis update failed", "ride_id", evt.RideID, "error", err)
	}
}

// RedisRecorder is the subset of redis operations eventtail needs.
type RedisRecorder interface {
	HSet(ctx context.Context, key string, values map[string]interface{}) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	_, err := r.c.HSet(ctx, key, values).Result()
	return err
}

// recordWithRetry stores the ride's latest workflow event, retrying with
// doubling delay.
func recordWithRetry(ctx context.Context, rc RedisRecorder, evt models.ClientEvent, attempts int, delay time.Duration) error {
	values := map[string]interface{}{"last_event": evt.Type, "last_event_id": evt.ID, "last_event_at": evt.At.Format(time.RFC3339Nano)}
	var err error
	for i := 0; i < attempts; i++ {
		if err = rc.HSet(ctx, "ride:events:"+evt.RideID, values); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
