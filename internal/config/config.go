package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server settings
	ListenAddr string `yaml:"listen_addr"`

	// Database
	DatabasePath string `yaml:"database_path"`

	// Uploaded photos
	PhotosDir string `yaml:"photos_dir"`
	// Longest side of a stored photo; larger uploads get downscaled
	MaxPhotoSize int `yaml:"max_photo_size"`

	// Client settings
	BaseURL        string        `yaml:"base_url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	// Path to the client session file; empty means the OS config dir
	SessionPath string `yaml:"session_path"`
}

// Load builds the configuration from defaults and environment variables.
func Load() *Config {
	cfg := &Config{
		ListenAddr:     ":5000",
		DatabasePath:   "./data/krisha.db",
		PhotosDir:      "./static/photos",
		MaxPhotoSize:   1600,
		BaseURL:        "http://127.0.0.1:5000",
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 25 * time.Second,
		PollInterval:   4 * time.Second,
	}

	if v := os.Getenv("KRISHA_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("KRISHA_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("KRISHA_PHOTOS_DIR"); v != "" {
		cfg.PhotosDir = v
	}
	if v := os.Getenv("KRISHA_MAX_PHOTO_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPhotoSize = n
		}
	}
	if v := os.Getenv("KRISHA_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("KRISHA_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("KRISHA_SESSION_PATH"); v != "" {
		cfg.SessionPath = v
	}

	return cfg
}

// LoadFile overlays settings from a YAML file on top of cfg.
// A missing file is not an error so that the default setup runs
// without any configuration at all.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
