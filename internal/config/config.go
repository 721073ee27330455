// Package config loads process configuration once at startup from the
// environment, and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every recognized option for both the ingestd and
// indicatord binaries; each binary reads only the fields it needs.
type Config struct {
	ServiceName string

	DBDSN string

	APIBaseURL string
	APIKey     string

	WebhookURLs []string

	LogLevel   string
	Environment string

	BucketMs      int64
	PagesPerTick  int
	PageSize      int
	PageCap       int
	Concurrency   int
	Retries       int
	RateLimitRPS  float64
	BatchSize     int

	PollIntervalS  int
	SafetyDelayS   int
	HealthInterval time.Duration

	MetricsPort int

	HTTPTimeout time.Duration
	DBTimeout   time.Duration
}

func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: serviceName,

		DBDSN: envStr("DB_DSN", ""),

		APIBaseURL: envStr("API_BASE_URL", "https://api.coingecko.com/api/v3"),
		APIKey:     envStr("API_KEY", ""),

		WebhookURLs: envStrList("WEBHOOK_URLS", nil),

		LogLevel:    envStr("LOG_LEVEL", "info"),
		Environment: envStr("ENVIRONMENT", "development"),

		BucketMs:     envInt64("BUCKET_MS", 180_000),
		PagesPerTick: envInt("PAGES_PER_TICK", 0),
		PageSize:     envInt("PAGE_SIZE", 250),
		PageCap:      envInt("PAGE_CAP", 20),
		Concurrency:  envInt("CONCURRENCY", 4),
		Retries:      envInt("RETRIES", 3),
		RateLimitRPS: envFloat("RATE_LIMIT_RPS", 2.0),
		BatchSize:    envInt("BATCH_SIZE", 1000),

		PollIntervalS:  envInt("POLL_INTERVAL_S", 3),
		SafetyDelayS:   envInt("SAFETY_DELAY_S", 5),
		HealthInterval: time.Duration(envInt("HEALTH_INTERVAL_S", 30)) * time.Second,

		MetricsPort: envInt("METRICS_PORT", 8080),

		HTTPTimeout: time.Duration(envInt("HTTP_TIMEOUT_S", 30)) * time.Second,
		DBTimeout:   time.Duration(envInt("DB_TIMEOUT_S", 60)) * time.Second,
	}

	return cfg, nil
}

// Validate returns a fatal, joined error describing every missing or
// out-of-range required field; callers exit non-zero on a non-nil result.
func (c *Config) Validate() error {
	var problems []string

	if c.DBDSN == "" {
		problems = append(problems, "DB_DSN is required")
	}
	if c.APIBaseURL == "" {
		problems = append(problems, "API_BASE_URL is required")
	}
	if c.BucketMs <= 0 {
		problems = append(problems, "BUCKET_MS must be positive")
	}
	if c.PageSize <= 0 || c.PageSize > 250 {
		problems = append(problems, "PAGE_SIZE must be in (0, 250]")
	}
	if c.Concurrency <= 0 {
		problems = append(problems, "CONCURRENCY must be positive")
	}
	if c.Retries < 0 {
		problems = append(problems, "RETRIES must be non-negative")
	}
	if c.RateLimitRPS <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// BucketInterval is BucketMs as a time.Duration, handy wherever the
// scheduler needs duration arithmetic instead of raw milliseconds.
func (c *Config) BucketInterval() time.Duration {
	return time.Duration(c.BucketMs) * time.Millisecond
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envStrList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
