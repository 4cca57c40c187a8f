package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration for the clinic service. Values come from an
// optional YAML file (CLINIC_CONFIG) overridden by CLINIC_* environment
// variables.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	SessionTTL        time.Duration
	BookingWindowDays int
	RosterCacheTTL    time.Duration
	AdminEmail        string
	AdminPassword     string
}

// fileConfig mirrors Config with durations held as strings so the YAML file
// can use time.ParseDuration syntax.
type fileConfig struct {
	HTTPPort          *int   `yaml:"http_port"`
	SQLiteDSN         string `yaml:"sqlite_dsn"`
	SessionTTL        string `yaml:"session_ttl"`
	BookingWindowDays *int   `yaml:"booking_window_days"`
	RosterCacheTTL    string `yaml:"roster_cache_ttl"`
	AdminEmail        string `yaml:"admin_email"`
	AdminPassword     string `yaml:"admin_password"`
}

// Load reads the optional config file, then applies environment overrides
// with defaults for everything optional. CLINIC_ADMIN_EMAIL and
// CLINIC_ADMIN_PASSWORD are required unless set in the file; they seed the
// first administrator account.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:clinic.db?_foreign_keys=on",
		SessionTTL:        24 * time.Hour,
		BookingWindowDays: 30,
		RosterCacheTTL:    30 * time.Second,
	}

	if path := strings.TrimSpace(os.Getenv("CLINIC_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := applyFileConfig(&cfg, file); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CLINIC_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CLINIC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CLINIC_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CLINIC_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CLINIC_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("CLINIC_BOOKING_WINDOW_DAYS")); windowValue != "" {
		window, err := strconv.Atoi(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "CLINIC_BOOKING_WINDOW_DAYS")
		} else {
			cfg.BookingWindowDays = window
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CLINIC_ROSTER_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CLINIC_ROSTER_CACHE_TTL")
		} else {
			cfg.RosterCacheTTL = ttl
		}
	}

	if email := strings.TrimSpace(os.Getenv("CLINIC_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = email
	}
	if password := os.Getenv("CLINIC_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	if strings.TrimSpace(cfg.AdminEmail) == "" {
		missing = append(missing, "CLINIC_ADMIN_EMAIL")
	}
	if cfg.AdminPassword == "" {
		missing = append(missing, "CLINIC_ADMIN_PASSWORD")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables hold invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFileConfig(cfg *Config, file fileConfig) error {
	if file.HTTPPort != nil {
		if *file.HTTPPort <= 0 {
			return fmt.Errorf("http_port must be positive")
		}
		cfg.HTTPPort = *file.HTTPPort
	}
	if dsn := strings.TrimSpace(file.SQLiteDSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if value := strings.TrimSpace(file.SessionTTL); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("session_ttl must be a positive duration")
		}
		cfg.SessionTTL = ttl
	}
	if file.BookingWindowDays != nil {
		if *file.BookingWindowDays <= 0 {
			return fmt.Errorf("booking_window_days must be positive")
		}
		cfg.BookingWindowDays = *file.BookingWindowDays
	}
	if value := strings.TrimSpace(file.RosterCacheTTL); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("roster_cache_ttl must be a positive duration")
		}
		cfg.RosterCacheTTL = ttl
	}
	if email := strings.TrimSpace(file.AdminEmail); email != "" {
		cfg.AdminEmail = email
	}
	if file.AdminPassword != "" {
		cfg.AdminPassword = file.AdminPassword
	}
	return nil
}
