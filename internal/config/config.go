package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig captures everything the customer client needs at startup.
// The API base URL is required; the rest falls back to defaults so the
// client can run against a local dev server with no further setup.
type ClientConfig struct {
	APIBaseURL       string
	DirectoryBaseURL string
	TrackingBaseURL  string
	HTTPTimeout      time.Duration

	SessionStore string // file, redis or memory
	SessionFile  string
	SessionKey   string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	OSRMEndpoint    string
	DefaultSpeedMps float64
	CacheStaleAfter time.Duration

	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	PGDSN         string
	RunMigrations bool

	LogLevel string
	LogFile  string
}

// EventTailConfig configures the workflow event consumer.
type EventTailConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	RedisAddr   string
	MetricsAddr string

	LogLevel string
	LogFile  string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		HTTPTimeout:     10 * time.Second,
		SessionStore:    "file",
		SessionFile:     defaultSessionFile(),
		SessionKey:      "session_token",
		KafkaTopic:      "ride-client-events",
		DefaultSpeedMps: 8,
		LogLevel:        "info",
	}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		LogLevel:        "info",
	}
}

// loadDotEnv pulls a .env from the working directory when present. Values
// already set in the environment are left alone.
func loadDotEnv() {
	_ = godotenv.Load()
}

func LoadClientConfig() (ClientConfig, error) {
	loadDotEnv()
	cfg := defaultClientConfig()
	var errs []error

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("RIDE_API_URL")), "/")
	if cfg.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("RIDE_API_URL is required"))
	} else if err := checkURL(cfg.APIBaseURL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("invalid RIDE_API_URL: %w", err))
	}

	cfg.DirectoryBaseURL = cfg.APIBaseURL
	setStringFromEnv(&cfg.DirectoryBaseURL, "RIDE_DIRECTORY_URL")
	cfg.DirectoryBaseURL = strings.TrimRight(cfg.DirectoryBaseURL, "/")

	cfg.TrackingBaseURL = wsURL(cfg.APIBaseURL)
	setStringFromEnv(&cfg.TrackingBaseURL, "RIDE_TRACKING_URL")
	cfg.TrackingBaseURL = strings.TrimRight(cfg.TrackingBaseURL, "/")

	setDurationFromEnv(&cfg.HTTPTimeout, "HTTP_TIMEOUT", &errs)

	if v := os.Getenv("SESSION_STORE"); v != "" {
		cfg.SessionStore = strings.ToLower(strings.TrimSpace(v))
	}
	setStringFromEnv(&cfg.SessionFile, "SESSION_FILE")
	setStringFromEnv(&cfg.SessionKey, "SESSION_KEY")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.OSRMEndpoint = strings.TrimRight(strings.TrimSpace(os.Getenv("OSRM_URL")), "/")
	setFloatFromEnv(&cfg.DefaultSpeedMps, "DEFAULT_SPEED_MPS", &errs)
	setDurationFromEnv(&cfg.CacheStaleAfter, "CACHE_STALE_AFTER", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))
	cfg.MetricsAddr = strings.TrimSpace(os.Getenv("METRICS_ADDR"))

	switch cfg.SessionStore {
	case "file", "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("SESSION_STORE=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be file, redis or memory"))
	}
	if cfg.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func LoadServerConfig() (ServerConfig, error) {
	loadDotEnv()
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))

	return cfg, errors.Join(errs...)
}

func LoadEventTailConfig() (EventTailConfig, error) {
	loadDotEnv()
	cfg := EventTailConfig{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "ride-client-events",
		KafkaGroup:   "ride-customer-eventtail",
		MetricsAddr:  ":2112",
		LogLevel:     "info",
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))

	if len(cfg.KafkaBrokers) == 0 {
		return cfg, fmt.Errorf("KAFKA_BROKERS must name at least one broker")
	}
	return cfg, nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("want absolute %s URL, got %q", strings.Join(schemes, "/"), raw)
}

// wsURL swaps an http(s) base for the matching websocket scheme.
func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".ride-customer", "session.json")
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
