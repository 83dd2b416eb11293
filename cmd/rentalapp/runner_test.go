package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func newTestRunner(output io.Writer) *Runner {
	return NewRunner(RunnerOpts{
		Logger:    log.New(io.Discard),
		Output:    output,
		LookupEnv: func(string) (string, bool) { return "", false },
	})
}

func run(t *testing.T, ctx context.Context, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "rentalapp", Commands: r.register()}
	return app.Run(ctx, append([]string{"rentalapp"}, args...))
}

// writeConfig writes a config pointing at a SQLite file inside a temp dir.
func writeConfig(t *testing.T, port int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[server]
port = %d
shutdown_timeout = "2s"

[database]
dsn = "file:%s?_fk=1"

[auth]
bcrypt_cost = 4

[log]
level = "error"
`, port, filepath.ToSlash(filepath.Join(dir, "rental.db")))

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner fills defaults", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})
		if r.logger == nil || r.output == nil || r.lookupEnv == nil || r.newContainer == nil {
			t.Errorf("expected defaults, got %+v", r)
		}
	})

	t.Run("NewRunner keeps options", func(t *testing.T) {
		logger := log.New(io.Discard)
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Logger: logger, Output: out})
		if r.logger != logger || r.output != out {
			t.Error("expected the provided logger and output")
		}
	})

	t.Run("registers every command", func(t *testing.T) {
		names := map[string]bool{}
		for _, cmd := range newTestRunner(io.Discard).register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "migrate", "config"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	out := &bytes.Buffer{}
	r := newTestRunner(out)

	if err := run(t, context.Background(), r, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	if err := run(t, context.Background(), r, "config", "init", "--config", path); err == nil {
		t.Error("config init must not overwrite an existing file")
	}

	out.Reset()
	if err := run(t, context.Background(), r, "config", "show", "--config", path); err != nil {
		t.Fatalf("config show: %v", err)
	}
	shown := out.String()
	if !strings.Contains(shown, "[database]") {
		t.Errorf("expected TOML output, got %q", shown)
	}
	if strings.Contains(shown, "change-me") || !strings.Contains(shown, "********") {
		t.Errorf("expected the session secret masked, got %q", shown)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	r := newTestRunner(io.Discard)
	cfg, err := r.loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected the default port, got %d", cfg.Server.Port)
	}
}

func TestMigrateCommand(t *testing.T) {
	path := writeConfig(t, 8000)
	out := &bytes.Buffer{}
	r := newTestRunner(out)

	if err := run(t, context.Background(), r, "migrate", "--config", path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "Schema is up to date") {
		t.Errorf("unexpected output %q", out.String())
	}

	if err := run(t, context.Background(), r, "migrate", "--config", path); err != nil {
		t.Errorf("migrate must be idempotent: %v", err)
	}
	if err := run(t, context.Background(), r, "migrate", "--reset", "--config", path); err != nil {
		t.Errorf("migrate --reset: %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeCommand(t *testing.T) {
	port := freePort(t)
	path := writeConfig(t, port)
	r := newTestRunner(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(t, ctx, r, "serve", "--config", path)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /healthz, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve should stop cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
