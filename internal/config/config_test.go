package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadClientConfigDefaults(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("RIDE_API_URL", "https://api.example.com/")
	t.Setenv("SESSION_FILE", "/tmp/s.json")

	cfg, err := LoadClientConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.DirectoryBaseURL != cfg.APIBaseURL {
		t.Fatalf("directory url should default to api url, got %q", cfg.DirectoryBaseURL)
	}
	if cfg.TrackingBaseURL != "wss://api.example.com" {
		t.Fatalf("tracking url = %q", cfg.TrackingBaseURL)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.SessionKey != "session_token" || cfg.SessionStore != "file" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadClientConfigErrors(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("RIDE_API_URL", "")
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := LoadClientConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"RIDE_API_URL is required", "invalid HTTP_TIMEOUT", "requires REDIS_ADDR"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadClientConfigRejectsRelativeURL(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("RIDE_API_URL", "api.example.com")
	if _, err := LoadClientConfig(); err == nil || !strings.Contains(err.Error(), "invalid RIDE_API_URL") {
		t.Fatalf("expected invalid url error, got %v", err)
	}
}

func TestLoadServerConfig(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MIGRATE", "TRUE")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || !cfg.RunMigrations {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadEventTailConfig(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := LoadEventTailConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "ride-client-events" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}

	t.Setenv("KAFKA_BROKERS", " , ")
	if _, err := LoadEventTailConfig(); err == nil {
		t.Fatal("expected error for empty broker list")
	}
}
