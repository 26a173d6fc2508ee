package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Booking    BookingConfig    `yaml:"booking"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications sent to hosts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// BookingConfig holds the booking-policy configuration.
type BookingConfig struct {
	// PendingTTLMinutes controls how long an unconfirmed booking may hold
	// its nights before the sweeper cancels it. Zero disables expiry.
	PendingTTLMinutes    int           `yaml:"pending_ttl_minutes"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	PendingTTL           time.Duration `yaml:"-"` // Ignored by YAML parser
	CalendarDays         int           `yaml:"calendar_days"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// EnableExclusionConstraint installs the Postgres range exclusion
	// constraint that rejects overlapping bookings at the schema level.
	EnableExclusionConstraint bool `yaml:"enable_exclusion_constraint"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Booking.SweepIntervalSeconds <= 0 {
		cfg.Booking.SweepIntervalSeconds = 300
	}
	cfg.Booking.SweepInterval = time.Duration(cfg.Booking.SweepIntervalSeconds) * time.Second

	if cfg.Booking.PendingTTLMinutes < 0 {
		log.Printf("booking.pending_ttl_minutes is negative; disabling pending expiry")
		cfg.Booking.PendingTTLMinutes = 0
	}
	cfg.Booking.PendingTTL = time.Duration(cfg.Booking.PendingTTLMinutes) * time.Minute

	if cfg.Booking.CalendarDays <= 0 {
		cfg.Booking.CalendarDays = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
