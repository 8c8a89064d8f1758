package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Provider   ProviderConfig   `yaml:"provider"`
	Redis      RedisConfig      `yaml:"redis"`
	Backend    BackendConfig    `yaml:"backend"`
	Booking    BookingConfig    `yaml:"booking"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port  int  `yaml:"port"`
	Debug bool `yaml:"debug"`
	// RequestIPHeader names the client-address header set by a proxy in
	// TrustedProxies. It is ignored on requests from any other peer.
	RequestIPHeader   string   `yaml:"request_ip_header"`
	TrustedProxies    []string `yaml:"trusted_proxies"` // IPs or CIDRs
	RateLimitPerSec   float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds   int      `yaml:"cache_ttl_seconds"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes"`

	CacheTTL   time.Duration `yaml:"-"`
	SessionTTL time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	SeedDemo               bool   `yaml:"seed_demo"`
}

// ProviderConfig selects where machine rules and unavailability are read from.
type ProviderConfig struct {
	Kind           string            `yaml:"kind"` // db or http
	BaseURL        string            `yaml:"base_url"`
	HTTPProxy      string            `yaml:"http_proxy"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`

	Timeout time.Duration `yaml:"-"`
}

// RedisConfig enables the provider cache when Address is set.
type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`

	TTL time.Duration `yaml:"-"`
}

// BackendConfig selects the booking backend that receives drafts.
type BackendConfig struct {
	Kind           string            `yaml:"kind"` // log or http
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`

	Timeout time.Duration `yaml:"-"`
}

// BookingConfig holds booking form settings.
type BookingConfig struct {
	ExtraTimeQuestionID int64  `yaml:"extra_time_question_id"`
	Timezone            string `yaml:"timezone"`
}

// PushConfig holds the VAPID keys and the staff subscriptions notified of new bookings.
type PushConfig struct {
	Enabled     bool               `yaml:"enabled"`
	PublicKey   string             `yaml:"vapid_public_key"`
	PrivateKey  string             `yaml:"vapid_private_key"`
	Subject     string             `yaml:"subject"`
	TTL         int                `yaml:"ttl"`
	Subscribers []PushSubscription `yaml:"subscribers"`
}

// PushSubscription is a browser push endpoint with its keys.
type PushSubscription struct {
	Endpoint string `yaml:"endpoint"`
	P256dh   string `yaml:"p256dh"`
	Auth     string `yaml:"auth"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// Load reads the configuration from the given path. ${VAR} placeholders are
// expanded from the environment before decoding.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 5
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 10
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 30
	}
	c.Server.CacheTTL = time.Duration(c.Server.CacheTTLSeconds) * time.Second
	if c.Server.SessionTTLMinutes <= 0 {
		c.Server.SessionTTLMinutes = 30
	}
	c.Server.SessionTTL = time.Duration(c.Server.SessionTTLMinutes) * time.Minute

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "file:booking.db?cache=shared"
	}

	if c.Provider.Kind == "" {
		c.Provider.Kind = "db"
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = 10
	}
	c.Provider.Timeout = time.Duration(c.Provider.TimeoutSeconds) * time.Second

	if c.Redis.TTLSeconds <= 0 {
		c.Redis.TTLSeconds = 60
	}
	c.Redis.TTL = time.Duration(c.Redis.TTLSeconds) * time.Second

	if c.Backend.Kind == "" {
		c.Backend.Kind = "log"
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 15
	}
	c.Backend.Timeout = time.Duration(c.Backend.TimeoutSeconds) * time.Second

	if c.Booking.ExtraTimeQuestionID <= 0 {
		c.Booking.ExtraTimeQuestionID = 2
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
	if c.WorkerPool.QueueSize <= 0 {
		c.WorkerPool.QueueSize = 100
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Provider.Kind {
	case "db":
	case "http":
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("provider.base_url is required when provider.kind is http")
		}
	default:
		return fmt.Errorf("provider.kind must be db or http, got %q", c.Provider.Kind)
	}
	switch c.Backend.Kind {
	case "log":
	case "http":
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required when backend.kind is http")
		}
	default:
		return fmt.Errorf("backend.kind must be log or http, got %q", c.Backend.Kind)
	}
	if c.Server.RequestIPHeader != "" && len(c.Server.TrustedProxies) == 0 {
		return fmt.Errorf("server.request_ip_header requires server.trusted_proxies")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p)
			}
		}
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	return nil
}

// Location returns the booking timezone. Parse has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
