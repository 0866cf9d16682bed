package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds the runtime settings of the battle room service.
type Config struct {
	ListenAddr  string
	DatabaseURL string
	StoreDriver string

	GameServiceToken string
	SessionJWTSecret string
	AllowedOrigins   []string

	SecretHashCost int
	MinDeckSize    int
	ListPageSize   int

	ReaperInterval    time.Duration
	ReaperStaleAfter  time.Duration
	EventPollInterval time.Duration

	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2BucketName        string
	CDNBaseURL          string
}

// Load reads environment variables, falling back to local defaults.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":5200"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoreDriver:      strings.ToLower(getEnv("MATCH_STORE", StoreDriverPostgres)),
		GameServiceToken: os.Getenv("GAME_SERVICE_TOKEN"),
		SessionJWTSecret: os.Getenv("SESSION_JWT_SECRET"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:       os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret:   os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2BucketName:        os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:          os.Getenv("CDN_BASE_URL"),
	}

	cfg.SecretHashCost = getInt("ROOM_SECRET_HASH_COST", 10, &errs)
	cfg.MinDeckSize = getInt("MIN_DECK_SIZE", 20, &errs)
	cfg.ListPageSize = getInt("LIST_PAGE_SIZE", 50, &errs)
	cfg.ReaperInterval = getDuration("REAPER_INTERVAL", time.Minute, &errs)
	cfg.ReaperStaleAfter = getDuration("REAPER_STALE_AFTER", 30*time.Minute, &errs)
	cfg.EventPollInterval = getDuration("EVENT_POLL_INTERVAL", time.Second, &errs)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("MATCH_STORE must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.GameServiceToken == "" {
		errs = append(errs, errors.New("GAME_SERVICE_TOKEN is required to authenticate the gateway"))
	}
	if c.SecretHashCost < 4 || c.SecretHashCost > 31 {
		errs = append(errs, fmt.Errorf("ROOM_SECRET_HASH_COST must be between 4 and 31, got %d", c.SecretHashCost))
	}
	if c.MinDeckSize < 1 {
		errs = append(errs, errors.New("MIN_DECK_SIZE must be positive"))
	}
	if c.ListPageSize < 1 {
		errs = append(errs, errors.New("LIST_PAGE_SIZE must be positive"))
	}
	if c.ReaperInterval <= 0 {
		errs = append(errs, errors.New("REAPER_INTERVAL must be positive"))
	}
	if c.EventPollInterval <= 0 {
		errs = append(errs, errors.New("EVENT_POLL_INTERVAL must be positive"))
	}
	if c.ArchiveEnabled() && (c.CloudflareAccountID == "" || c.R2AccessKeyID == "" || c.R2AccessKeySecret == "") {
		errs = append(errs, errors.New("R2_BUCKET_NAME is set but Cloudflare credentials are incomplete"))
	}

	return errors.Join(errs...)
}

// ArchiveEnabled reports whether finished matches go to R2.
func (c Config) ArchiveEnabled() bool { return c.R2BucketName != "" }

// ReaperEnabled reports whether stale matches are abandoned automatically.
func (c Config) ReaperEnabled() bool { return c.ReaperStaleAfter > 0 }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
