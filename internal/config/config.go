package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the admin-tunable part of the configuration. Every component reads
// limits and windows from here so there is a single source for each value.
type Settings struct {
	DailyHours          int
	WeeklySlots         int
	StreamKeyReveal     time.Duration
	GracePeriod         time.Duration
	SessionEndCountdown time.Duration
	AllowGoLiveNow      bool
	AllowGoLiveAfter    bool
	AllowTakeover       bool
	TakeoverTTL         time.Duration
	TakeoverMaxRequests int
}

type Config struct {
	Environment     string
	LogLevel        string
	HTTPAddr        string
	DBDSN           string
	RedisAddr       string
	TelegramToken   string
	JWTSecret       string
	StreamKeySecret string
	RTMPServerURL   string
	HLSBaseURL      string
	Timezone        string
	SweepInterval   time.Duration

	Settings Settings
}

// DefaultSettings returns the station defaults.
func DefaultSettings() Settings {
	return Settings{
		DailyHours:          2,
		WeeklySlots:         7,
		StreamKeyReveal:     15 * time.Minute,
		GracePeriod:         5 * time.Minute,
		SessionEndCountdown: 10 * time.Second,
		AllowGoLiveNow:      true,
		AllowGoLiveAfter:    true,
		AllowTakeover:       true,
		TakeoverTTL:         5 * time.Minute,
		TakeoverMaxRequests: 3,
	}
}

func Load() (*Config, error) {
	// .env is optional, the environment always wins
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env file")
	}

	def := DefaultSettings()
	p := &parser{}

	cfg := &Config{
		Environment:     getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DBDSN:           os.Getenv("DB_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-jwt-secret"),
		StreamKeySecret: getEnv("STREAM_KEY_SECRET", "dev-stream-key-secret"),
		RTMPServerURL:   getEnv("RTMP_SERVER_URL", "rtmp://localhost/live"),
		HLSBaseURL:      strings.TrimRight(getEnv("HLS_BASE_URL", "http://localhost:8088/hls"), "/"),
		Timezone:        getEnv("TIMEZONE", "Europe/London"),
		SweepInterval:   p.durationVal("SWEEP_INTERVAL", 0),
		Settings: Settings{
			DailyHours:          p.intVal("DEFAULT_DAILY_HOURS", def.DailyHours),
			WeeklySlots:         p.intVal("DEFAULT_WEEKLY_SLOTS", def.WeeklySlots),
			StreamKeyReveal:     p.minutes("STREAM_KEY_REVEAL_MINUTES", def.StreamKeyReveal),
			GracePeriod:         p.minutes("GRACE_PERIOD_MINUTES", def.GracePeriod),
			SessionEndCountdown: p.seconds("SESSION_END_COUNTDOWN", def.SessionEndCountdown),
			AllowGoLiveNow:      p.boolVal("ALLOW_GO_LIVE_NOW", def.AllowGoLiveNow),
			AllowGoLiveAfter:    p.boolVal("ALLOW_GO_LIVE_AFTER", def.AllowGoLiveAfter),
			AllowTakeover:       p.boolVal("ALLOW_TAKEOVER", def.AllowTakeover),
			TakeoverTTL:         p.durationVal("TAKEOVER_TTL", def.TakeoverTTL),
			TakeoverMaxRequests: p.intVal("TAKEOVER_MAX_REQUESTS", def.TakeoverMaxRequests),
		},
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.StreamKeySecret == "" {
		errs = append(errs, errors.New("STREAM_KEY_SECRET is required"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must not be negative"))
	}
	if err := c.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s Settings) Validate() error {
	var errs []error
	if s.DailyHours < 1 || s.DailyHours > 24 {
		errs = append(errs, fmt.Errorf("DEFAULT_DAILY_HOURS must be between 1 and 24, got %d", s.DailyHours))
	}
	if s.WeeklySlots < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_WEEKLY_SLOTS must not be negative, got %d", s.WeeklySlots))
	}
	if s.StreamKeyReveal < 0 || s.GracePeriod < 0 {
		errs = append(errs, errors.New("reveal and grace windows must not be negative"))
	}
	if s.TakeoverTTL <= 0 {
		errs = append(errs, errors.New("TAKEOVER_TTL must be positive"))
	}
	if s.TakeoverMaxRequests < 1 {
		errs = append(errs, fmt.Errorf("TAKEOVER_MAX_REQUESTS must be at least 1, got %d", s.TakeoverMaxRequests))
	}
	return errors.Join(errs...)
}

// RequireDB is checked by the commands that talk to Postgres.
func (c *Config) RequireDB() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	return nil
}

// Location returns the station timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parser collects every malformed value instead of stopping at the first one.
type parser struct {
	errs []error
}

func (p *parser) intVal(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) boolVal(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) durationVal(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) minutes(key string, fallback time.Duration) time.Duration {
	return time.Duration(p.intVal(key, int(fallback/time.Minute))) * time.Minute
}

func (p *parser) seconds(key string, fallback time.Duration) time.Duration {
	return time.Duration(p.intVal(key, int(fallback/time.Second))) * time.Second
}
