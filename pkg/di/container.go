package di

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sntnmjones/RentalApp/cache"
	"github.com/sntnmjones/RentalApp/hierarchy"
	"github.com/sntnmjones/RentalApp/internal/auth"
	"github.com/sntnmjones/RentalApp/internal/config"
	"github.com/sntnmjones/RentalApp/internal/mail"
	"github.com/sntnmjones/RentalApp/internal/web"
	"github.com/sntnmjones/RentalApp/store"
	"github.com/uptrace/bun"
)

// Container builds the application graph from a configuration and owns the
// resources that need closing. Every component is a singleton.
type Container struct {
	config        *config.Config
	logger        *log.Logger
	db            *bun.DB
	store         *store.Store
	cacheService  cache.CacheService
	tokenCache    cache.CacheService
	keySerializer cache.KeySerializer
	mailer        mail.Mailer
	locations     *hierarchy.Service
	accounts      *auth.Service
	handler       *web.Handler
}

// Option configures a Container.
type Option func(*Container)

// WithLogger replaces the logger built from the log section.
func WithLogger(logger *log.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMailer replaces the mailer selected by the mail section.
func WithMailer(mailer mail.Mailer) Option {
	return func(c *Container) {
		c.mailer = mailer
	}
}

// NewContainer validates cfg, opens the database (migrating it when
// database.auto_migrate is set) and wires every service.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = config.NewLogger(nil, cfg.Log)
	}

	db, err := store.Open(store.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	c.db = db

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := c.wire(); err != nil {
		db.Close()
		return nil, err
	}

	c.logger.Debug("container ready", "driver", cfg.Database.Driver)
	return c, nil
}

func (c *Container) wire() error {
	cfg := c.config

	cacheService, err := cache.NewCacheService(cache.Config{
		Capacity:           cfg.Cache.Capacity,
		NumShards:          cfg.Cache.NumShards,
		TTL:                cfg.Cache.TTL.Duration,
		EvictionPercentage: cfg.Cache.EvictionPercentage,
		EvictionInterval:   cfg.Cache.EvictionInterval.Duration,
	})
	if err != nil {
		return fmt.Errorf("lookup cache: %w", err)
	}
	c.cacheService = cacheService

	tokenCache, err := cache.NewCacheService(cache.Config{
		Capacity:           cfg.Cache.Capacity,
		NumShards:          cfg.Cache.NumShards,
		TTL:                cfg.Auth.ResetTokenTTL.Duration,
		EvictionPercentage: cfg.Cache.EvictionPercentage,
		EvictionInterval:   cfg.Cache.EvictionInterval.Duration,
	})
	if err != nil {
		return fmt.Errorf("token cache: %w", err)
	}
	c.tokenCache = tokenCache

	if c.mailer == nil {
		c.mailer = newMailer(cfg.Mail, config.WithLogger(c.logger, "component", "mail"))
	}

	c.keySerializer = cache.NewDefaultKeySerializer(cache.WithSegmentHashing(cfg.Cache.KeyHashThreshold))
	c.store = store.New(c.db)

	c.locations = hierarchy.New(c.store, c.cacheService,
		hierarchy.WithKeySerializer(c.keySerializer),
		hierarchy.WithLogger(config.WithLogger(c.logger, "component", "hierarchy")),
	)

	c.accounts = auth.NewService(c.store, c.locations, c.mailer, c.tokenCache,
		auth.Config{
			BcryptCost:    cfg.Auth.BcryptCost,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL.Duration,
		},
		auth.WithLogger(config.WithLogger(c.logger, "component", "auth")),
	)

	c.handler = web.New(c.locations, c.accounts, web.Config{
		BaseURL:       cfg.Server.BaseURL,
		SessionName:   cfg.Session.Name,
		SessionSecret: cfg.Session.Secret,
		SessionMaxAge: cfg.Session.MaxAge.Duration,
		SecureCookie:  cfg.Session.Secure,
		LoginRate:     cfg.Auth.LoginRate,
		LoginBurst:    cfg.Auth.LoginBurst,
	}, web.WithLogger(config.WithLogger(c.logger, "component", "web")))

	return nil
}

func newMailer(cfg config.MailConfig, logger *log.Logger) mail.Mailer {
	if cfg.Driver == "smtp" {
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		}, logger)
	}
	return mail.NewLogMailer(logger)
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the root logger.
func (c *Container) Logger() *log.Logger {
	return c.logger
}

// DB returns the database handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Store returns the persistent store.
func (c *Container) Store() *store.Store {
	return c.store
}

// CacheService returns the lookup cache shared by the hierarchy layer.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the serializer used for lookup cache keys.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Mailer returns the configured mailer.
func (c *Container) Mailer() mail.Mailer {
	return c.mailer
}

// Locations returns the hierarchy access layer.
func (c *Container) Locations() *hierarchy.Service {
	return c.locations
}

// Accounts returns the account service.
func (c *Container) Accounts() *auth.Service {
	return c.accounts
}

// Handler returns the HTTP handler.
func (c *Container) Handler() *web.Handler {
	return c.handler
}

// Close releases the database.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
