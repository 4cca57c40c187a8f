package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearClinicEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLINIC_CONFIG",
		"CLINIC_HTTP_PORT",
		"CLINIC_SQLITE_DSN",
		"CLINIC_SESSION_TTL",
		"CLINIC_BOOKING_WINDOW_DAYS",
		"CLINIC_ROSTER_CACHE_TTL",
		"CLINIC_ADMIN_EMAIL",
		"CLINIC_ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearClinicEnv(t)
	t.Setenv("CLINIC_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("CLINIC_ADMIN_PASSWORD", "changeme123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.BookingWindowDays != 30 {
		t.Errorf("BookingWindowDays = %d, want 30", cfg.BookingWindowDays)
	}
	if cfg.RosterCacheTTL != 30*time.Second {
		t.Errorf("RosterCacheTTL = %v, want 30s", cfg.RosterCacheTTL)
	}
	if cfg.SQLiteDSN == "" {
		t.Error("SQLiteDSN must have a default")
	}
}

func TestLoadRequiresAdminCredentials(t *testing.T) {
	clearClinicEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing admin credentials")
	}
	for _, key := range []string{"CLINIC_ADMIN_EMAIL", "CLINIC_ADMIN_PASSWORD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearClinicEnv(t)
	t.Setenv("CLINIC_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("CLINIC_ADMIN_PASSWORD", "changeme123")
	t.Setenv("CLINIC_HTTP_PORT", "9090")
	t.Setenv("CLINIC_SQLITE_DSN", "file:test.db")
	t.Setenv("CLINIC_SESSION_TTL", "2h")
	t.Setenv("CLINIC_BOOKING_WINDOW_DAYS", "14")
	t.Setenv("CLINIC_ROSTER_CACHE_TTL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:test.db" {
		t.Errorf("SQLiteDSN = %q", cfg.SQLiteDSN)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.BookingWindowDays != 14 {
		t.Errorf("BookingWindowDays = %d, want 14", cfg.BookingWindowDays)
	}
	if cfg.RosterCacheTTL != 5*time.Second {
		t.Errorf("RosterCacheTTL = %v, want 5s", cfg.RosterCacheTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"CLINIC_HTTP_PORT", "not-a-port"},
		{"CLINIC_HTTP_PORT", "-1"},
		{"CLINIC_SESSION_TTL", "yesterday"},
		{"CLINIC_BOOKING_WINDOW_DAYS", "0"},
		{"CLINIC_ROSTER_CACHE_TTL", "-5s"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearClinicEnv(t)
			t.Setenv("CLINIC_ADMIN_EMAIL", "admin@example.com")
			t.Setenv("CLINIC_ADMIN_PASSWORD", "changeme123")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error %q does not name %s", err, tc.key)
			}
		})
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	clearClinicEnv(t)

	path := filepath.Join(t.TempDir(), "clinic.yaml")
	content := strings.Join([]string{
		"http_port: 7070",
		"session_ttl: 1h",
		"admin_email: file-admin@example.com",
		"admin_password: filepassword",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CLINIC_CONFIG", path)
	t.Setenv("CLINIC_HTTP_PORT", "7071")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 7071 {
		t.Errorf("environment must override the file: HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
	if cfg.AdminEmail != "file-admin@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
}
