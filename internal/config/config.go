package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override secrets from the file.
const (
	EnvSessionSecret = "RENTALAPP_SESSION_SECRET"
	EnvMailPassword  = "RENTALAPP_MAIL_PASSWORD"
	EnvDatabaseDSN   = "RENTALAPP_DATABASE_DSN"
)

var (
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Mail     MailConfig     `toml:"mail"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	BaseURL         string   `toml:"base_url"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	AutoMigrate  bool   `toml:"auto_migrate"`
}

// CacheConfig sizes the lookup cache.
type CacheConfig struct {
	Capacity           int      `toml:"capacity"`
	NumShards          int      `toml:"num_shards"`
	TTL                Duration `toml:"ttl"`
	EvictionPercentage int      `toml:"eviction_percentage"`
	EvictionInterval   Duration `toml:"eviction_interval"`
	KeyHashThreshold   int      `toml:"key_hash_threshold"`
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Name   string   `toml:"name"`
	Secret string   `toml:"secret"`
	MaxAge Duration `toml:"max_age"`
	Secure bool     `toml:"secure"`
}

// AuthConfig configures accounts and login throttling.
type AuthConfig struct {
	BcryptCost    int      `toml:"bcrypt_cost"`
	ResetTokenTTL Duration `toml:"reset_token_ttl"`
	LoginRate     float64  `toml:"login_rate"`
	LoginBurst    int      `toml:"login_burst"`
}

// MailConfig selects and configures outgoing mail.
type MailConfig struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string such as "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads a TOML file over the defaults, applies environment
// overrides and validates the result. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv(os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ExampleConfig returns the embedded example file.
func ExampleConfig() []byte {
	return append([]byte(nil), exampleConf...)
}

// CreateConfigFile creates a config file at path from the embedded example.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSessionSecret); ok && v != "" {
		c.Session.Secret = v
	}
	if v, ok := lookup(EnvMailPassword); ok && v != "" {
		c.Mail.Password = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		c.Database.DSN = v
	}
}

// Validate checks every section. Field errors are available through
// errors.As with validation.Errors.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.Cache),
		validation.Field(&c.Session),
		validation.Field(&c.Auth),
		validation.Field(&c.Mail),
		validation.Field(&c.Log),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.Required),
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.BaseURL, validation.Required, is.URL),
		validation.Field(&s.ReadTimeout, validation.By(positiveDuration)),
		validation.Field(&s.WriteTimeout, validation.By(positiveDuration)),
		validation.Field(&s.ShutdownTimeout, validation.By(positiveDuration)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "sqlite3", "postgres")),
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
		validation.Field(&d.MaxIdleConns, validation.Min(0)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1), validation.Max(c.Capacity)),
		validation.Field(&c.TTL, validation.By(positiveDuration)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.KeyHashThreshold, validation.Min(0)),
	)
}

func (s SessionConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Secret, validation.Required, validation.Length(32, 0)),
		validation.Field(&s.MaxAge, validation.By(positiveDuration)),
	)
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BcryptCost, validation.Required, validation.Min(4), validation.Max(31)),
		validation.Field(&a.ResetTokenTTL, validation.By(positiveDuration)),
		validation.Field(&a.LoginRate, validation.Required, validation.Min(0.0)),
		validation.Field(&a.LoginBurst, validation.Required, validation.Min(1)),
	)
}

func (m MailConfig) Validate() error {
	smtp := m.Driver == "smtp"
	return validation.ValidateStruct(&m,
		validation.Field(&m.Driver, validation.Required, validation.In("log", "smtp")),
		validation.Field(&m.Host, validation.When(smtp, validation.Required)),
		validation.Field(&m.Port, validation.When(smtp, validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&m.From, validation.Required),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json", "logfmt")),
	)
}

func positiveDuration(value any) error {
	d, ok := value.(Duration)
	if !ok {
		return errors.New("must be a duration")
	}
	if d.Duration <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}
