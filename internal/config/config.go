package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the CLI and the dev backend.
type Config struct {
	Env         string
	APIBaseURL  string
	SessionPath string
	HTTPTimeout time.Duration
	LogLevel    string

	// Polling intervals. The dashboards refresh at different cadences,
	// mirroring the pages this client replaces.
	PollInterval     time.Duration // dashboards (incoming, my requests)
	FastPollInterval time.Duration // nearby providers, booking confirm
	JobPollInterval  time.Duration // active job detail

	// Geolocation broadcast throttling.
	LocationMinInterval time.Duration
	LocationMinMoveM    float64

	// WebSocket refresh stream.
	StreamRetryDelay time.Duration

	// Dev backend (quickserved).
	HTTPPort        string
	DatabasePath    string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	KycStoragePath  string
	MaxUploadSizeMB int64
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
}

// Load reads environment variables and returns a ready configuration.
func Load() (*Config, error) {
	// Load .env only when present, otherwise rely on the environment.
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: no .env found, using environment variables")
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:             env,
		APIBaseURL:      ResolveBaseURL(getEnv("QUICKSERVE_API_URL", ""), getEnv("QUICKSERVE_HOST", "")),
		SessionPath:     getEnv("QUICKSERVE_SESSION_PATH", defaultSessionPath()),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPPort:        getEnv("HTTP_PORT", "8000"),
		DatabasePath:    getEnv("DATABASE_PATH", "./quickserve.db"),
		KycStoragePath:  getEnv("KYC_STORAGE_PATH", "./storage/kyc"),
		MaxUploadSizeMB: mustParseInt64(getEnv("MAX_UPLOAD_MB", "10")),
	}

	cfg.HTTPTimeout = mustParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	cfg.PollInterval = mustParseDuration(getEnv("POLL_INTERVAL", "10s"))
	cfg.FastPollInterval = mustParseDuration(getEnv("FAST_POLL_INTERVAL", "5s"))
	cfg.JobPollInterval = mustParseDuration(getEnv("JOB_POLL_INTERVAL", "8s"))
	cfg.LocationMinInterval = mustParseDuration(getEnv("LOCATION_MIN_INTERVAL", "5s"))
	cfg.LocationMinMoveM = mustParseFloat(getEnv("LOCATION_MIN_MOVE_M", "15"))
	cfg.StreamRetryDelay = mustParseDuration(getEnv("STREAM_RETRY_DELAY", "3s"))
	cfg.AccessTokenTTL = mustParseDuration(getEnv("ACCESS_TOKEN_TTL", "12h"))
	cfg.RateLimitLimit = mustParseInt64(getEnv("RATE_LIMIT_LIMIT", "120"))
	cfg.RateLimitPeriod = mustParseDuration(getEnv("RATE_LIMIT_PERIOD", "1m"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if env == "production" {
		if len(jwtSecret) < 32 {
			return nil, fmt.Errorf("config: JWT_SECRET is required and must be at least 32 characters in production")
		}
	} else if jwtSecret == "" {
		jwtSecret = "quickserve-development-only-secret-change-me"
		log.Printf("config: WARNING - default JWT_SECRET in use, change it in production")
	}
	cfg.JWTSecret = jwtSecret

	return cfg, nil
}

// ResolveBaseURL keeps the hostname heuristics the web client used: an
// explicit URL wins, then the advertised host decides between the public
// tunnel, LAN addresses, and the local default.
func ResolveBaseURL(explicit, host string) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	switch {
	case strings.HasSuffix(host, ".trycloudflare.com"):
		return "https://" + host
	case strings.HasPrefix(host, "192.168."):
		return "http://" + host + ":8000"
	case strings.HasPrefix(host, "10.153."):
		return "http://" + host + ":8000"
	default:
		return "http://127.0.0.1:8000"
	}
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quickserve-session.json"
	}
	return filepath.Join(home, ".config", "quickserve", "session.json")
}

// getEnv returns the variable's value or the fallback.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func mustParseDuration(v string) time.Duration {
	dur, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: cannot parse duration %q: %v", v, err)
	}
	return dur
}

func mustParseInt64(v string) int64 {
	num, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("config: cannot parse number %q: %v", v, err)
	}
	return num
}

func mustParseFloat(v string) float64 {
	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("config: cannot parse number %q: %v", v, err)
	}
	return num
}
