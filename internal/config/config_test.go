package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != ":5000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 4*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KRISHA_LISTEN_ADDR", ":8080")
	t.Setenv("KRISHA_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("KRISHA_POLL_INTERVAL", "2s")
	t.Setenv("KRISHA_MAX_PHOTO_SIZE", "800")

	cfg := Load()
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.BaseURL != "http://10.0.0.5:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.MaxPhotoSize != 800 {
		t.Errorf("MaxPhotoSize = %d", cfg.MaxPhotoSize)
	}
}

func TestLoadEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("KRISHA_MAX_PHOTO_SIZE", "not a number")
	t.Setenv("KRISHA_POLL_INTERVAL", "-3s")

	cfg := Load()
	if cfg.MaxPhotoSize != 1600 {
		t.Errorf("MaxPhotoSize = %d, want default", cfg.MaxPhotoSize)
	}
	if cfg.PollInterval != 4*time.Second {
		t.Errorf("PollInterval = %v, want default", cfg.PollInterval)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_addr: \":9090\"\nbase_url: http://example.com\npoll_interval: 1s\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatal(err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.BaseURL != "http://example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	// не указано в файле, остаётся из Load()
	if cfg.DatabasePath != "./data/krisha.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg := Load()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - broken: ["), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if err := cfg.LoadFile(path); err == nil {
		t.Error("expected parse error for malformed yaml")
	}
}
