package di

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/sntnmjones/RentalApp/internal/config"
	"github.com/sntnmjones/RentalApp/internal/mail"
	"github.com/sntnmjones/RentalApp/pkg/testsupport"
	"golang.org/x/crypto/bcrypt"
)

// testConfig is the default configuration pointed at a private in-memory
// database.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.DSN = testsupport.MemoryDSN()
	cfg.Database.AutoMigrate = true
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.LoginRate = 1000
	cfg.Cache.Capacity = 1000
	cfg.Cache.NumShards = 4
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)

	container, err := NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() {
		container.Close()
	})
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig()
	container := newTestContainer(t, cfg)

	if container.Config() != cfg {
		t.Error("Config() should return the configuration the container was built from")
	}
	if container.DB() == nil || container.Store() == nil {
		t.Fatal("expected a database and a store")
	}
	if container.CacheService() == nil || container.KeySerializer() == nil {
		t.Fatal("expected a cache service and a key serializer")
	}
	if container.Locations() == nil || container.Accounts() == nil || container.Handler() == nil {
		t.Fatal("expected every service to be wired")
	}
	if container.Logger() == nil {
		t.Fatal("expected a logger")
	}

	if err := container.DB().PingContext(context.Background()); err != nil {
		t.Errorf("database should be reachable: %v", err)
	}

	// auto_migrate created the schema.
	if _, err := container.Locations().ListCountries(context.Background()); err != nil {
		t.Errorf("expected migrated tables, got %v", err)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if _, err := NewContainer(context.Background(), nil); !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Capacity = 0
		if _, err := NewContainer(context.Background(), cfg); !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unreachable database", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
		if _, err := NewContainer(context.Background(), cfg, WithLogger(log.New(io.Discard))); err == nil {
			t.Error("expected a connection error")
		}
	})
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newTestContainer(t, testConfig())

	if container.CacheService() != container.CacheService() {
		t.Error("CacheService() should return the same instance")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance")
	}
	if container.Locations() != container.Locations() {
		t.Error("Locations() should return the same instance")
	}
	if container.CacheService() == container.tokenCache {
		t.Error("reset tokens must not share the lookup cache")
	}
}

func TestContainerMailer(t *testing.T) {
	t.Run("log driver", func(t *testing.T) {
		container := newTestContainer(t, testConfig())
		if _, ok := container.Mailer().(*mail.LogMailer); !ok {
			t.Errorf("expected *mail.LogMailer, got %T", container.Mailer())
		}
	})

	t.Run("smtp driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Mail.Driver = "smtp"
		container := newTestContainer(t, cfg)
		if _, ok := container.Mailer().(*mail.SMTPMailer); !ok {
			t.Errorf("expected *mail.SMTPMailer, got %T", container.Mailer())
		}
	})

	t.Run("override", func(t *testing.T) {
		mailer := mail.NewLogMailer(log.New(io.Discard))
		container := newTestContainer(t, testConfig(), WithMailer(mailer))
		if container.Mailer() != mailer {
			t.Error("WithMailer should replace the configured mailer")
		}
	})
}

func TestKeySerializerIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.KeyHashThreshold = 16
	keys := newTestContainer(t, cfg).KeySerializer()

	testCases := []struct {
		name     string
		args     []any
		expected string
	}{
		{name: "no args", args: nil, expected: "countries"},
		{name: "single segment", args: []any{"USA"}, expected: "countries::USA"},
		{name: "escaped separator", args: []any{"a:b"}, expected: "countries::a%3Ab"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keys.SerializeKey("countries", tc.args...); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}

	t.Run("long segment hashed", func(t *testing.T) {
		long := strings.Repeat("Main Street ", 4)
		key := keys.SerializeKey("address", long)
		if strings.Contains(key, "Main") {
			t.Errorf("expected %q to be hashed, got %q", long, key)
		}
		if key != keys.SerializeKey("address", long) {
			t.Error("hashing must be deterministic")
		}
	})
}

func TestContainerClose(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(), WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := container.DB().PingContext(context.Background()); err == nil {
		t.Error("database should be closed")
	}

	var empty Container
	if err := empty.Close(); err != nil {
		t.Errorf("closing an unbuilt container should be a no-op, got %v", err)
	}
}
