package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LexatoEnv string

	BackendURL       string
	ValidationURL    string
	PushURL          string
	ExtensionVersion string

	ValidationTimeout time.Duration
	Level3Timeout     time.Duration
	Level4Timeout     time.Duration
	PollInterval      time.Duration
	PollMaxInterval   time.Duration

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests      int
	RateLimitWindowSeconds int

	// Reference backend: how long each simulated level takes to complete,
	// and the key its validation endpoint signs acknowledgments with.
	BackendLevelDuration time.Duration
	ValidationSigningKey string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		LexatoEnv:              os.Getenv("LEXATO_ENV"),
		BackendURL:             os.Getenv("BACKEND_URL"),
		ValidationURL:          os.Getenv("VALIDATION_URL"),
		PushURL:                os.Getenv("PUSH_URL"),
		ExtensionVersion:       envDefault("EXTENSION_VERSION", "dev"),
		ValidationTimeout:      envDurationDefault("VALIDATION_TIMEOUT", 30*time.Second),
		Level3Timeout:          envDurationDefault("LEVEL3_TIMEOUT", 5*time.Minute),
		Level4Timeout:          envDurationDefault("LEVEL4_TIMEOUT", 10*time.Minute),
		PollInterval:           envDurationDefault("POLL_INTERVAL", 2*time.Second),
		PollMaxInterval:        envDurationDefault("POLL_MAX_INTERVAL", 30*time.Second),
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		BackendLevelDuration:   envDurationDefault("BACKEND_LEVEL_DURATION", 2*time.Second),
		ValidationSigningKey:   envDefault("VALIDATION_SIGNING_KEY", "dev-signing-key"),
	}
}

// Production reports whether the process runs against real authorities.
// The simulated validation transport is never selected in production.
func (c Config) Production() bool {
	return c.LexatoEnv == "production"
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
