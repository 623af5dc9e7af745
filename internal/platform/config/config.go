package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Stores fall back to in-memory implementations when their DSN/URL
// is left empty, which keeps local development zero-dependency.
type Config struct {
	Addr string

	// PostgresDSN enables the durable stores when set.
	PostgresDSN string

	// RedisURL enables the shared notification once-flag store when set.
	RedisURL string

	// KafkaBrokers enables the audit event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// OracleURL points at the external identity-scoring oracle. Empty means
	// the deterministic in-process double (dev only).
	OracleURL     string
	OracleTimeout time.Duration

	// AdminSigningKey verifies admin authorization tokens for fraud-flag
	// override clears.
	AdminSigningKey string

	// Decision thresholds, tunable per tournament deployment.
	FaceApproveFloor     float64
	FaceRejectFloor      float64
	LivenessApproveFloor float64
	LivenessRejectFloor  float64

	// Admission window shape around kickoff.
	WindowOpensBefore time.Duration
	WindowClosesAfter time.Duration

	// NotifyPollInterval is how often the window poller wakes up.
	NotifyPollInterval time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:            envOr("MATCHGATE_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("MATCHGATE_POSTGRES_DSN"),
		RedisURL:        os.Getenv("MATCHGATE_REDIS_URL"),
		KafkaBrokers:    splitNonEmpty(os.Getenv("MATCHGATE_KAFKA_BROKERS")),
		KafkaTopic:      envOr("MATCHGATE_KAFKA_TOPIC", "matchgate.audit"),
		OracleURL:       os.Getenv("MATCHGATE_ORACLE_URL"),
		OracleTimeout:   durationOr("MATCHGATE_ORACLE_TIMEOUT", 10*time.Second),
		AdminSigningKey: envOr("MATCHGATE_ADMIN_SIGNING_KEY", "dev-secret-key-change-in-production"),

		FaceApproveFloor:     floatOr("MATCHGATE_FACE_APPROVE_FLOOR", 95),
		FaceRejectFloor:      floatOr("MATCHGATE_FACE_REJECT_FLOOR", 80),
		LivenessApproveFloor: floatOr("MATCHGATE_LIVENESS_APPROVE_FLOOR", 80),
		LivenessRejectFloor:  floatOr("MATCHGATE_LIVENESS_REJECT_FLOOR", 50),

		WindowOpensBefore:  durationOr("MATCHGATE_WINDOW_OPENS_BEFORE", 30*time.Minute),
		WindowClosesAfter:  durationOr("MATCHGATE_WINDOW_CLOSES_AFTER", 15*time.Minute),
		NotifyPollInterval: durationOr("MATCHGATE_NOTIFY_POLL_INTERVAL", 5*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func floatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
