package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/pricing-advisor/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("expected default body limit, got %d", cfg.UploadSizeBytes())
	}
	if cfg.RequestTimeoutDuration() != defaultRequestTimeout || cfg.ShutdownTimeoutDuration() != defaultShutdownTimeout {
		t.Fatalf("unexpected timeout defaults: %s/%s", cfg.RequestTimeoutDuration(), cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ReadTimeoutDuration() != defaultReadTimeout || cfg.WriteTimeoutDuration() != defaultWriteTimeout {
		t.Fatalf("unexpected timeouts: %s/%s", cfg.ReadTimeoutDuration(), cfg.WriteTimeoutDuration())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-config.yaml")
	contents := []byte(`address: 127.0.0.1:9000
maxUploadSize: 2M
requestTimeout: 5s
shutdownTimeout: 1m
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected body limit override, got %d", cfg.UploadSizeBytes())
	}
	if cfg.RequestTimeoutDuration() != 5*time.Second || cfg.ShutdownTimeoutDuration() != time.Minute {
		t.Fatalf("unexpected timeouts: %s/%s", cfg.RequestTimeoutDuration(), cfg.ShutdownTimeoutDuration())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" || cfg.Logging.OutputFile != "/tmp/server.log" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}

	cfg.SetAddress(" :7070 ")
	if cfg.Address != ":7070" {
		t.Fatalf("SetAddress() left %q", cfg.Address)
	}
	cfg.SetAddress("")
	if cfg.Address != ":7070" {
		t.Fatalf("empty SetAddress() should keep %q, got %q", ":7070", cfg.Address)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad size":    "maxUploadSize: invalid",
		"bad timeout": "readTimeout: soon",
		"negative":    "requestTimeout: -1s",
		"not yaml":    "address: [unterminated",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("expected error for %q", contents)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	for _, bad := range []string{"1TB", "2G", "abc", "9999999999999999M"} {
		if _, err := ParseSize(bad); err == nil {
			t.Fatalf("ParseSize(%q) expected error", bad)
		}
	}
}
