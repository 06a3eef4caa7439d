package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("orgdirectory-api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Directory.ActivityDepth != 3 {
		t.Errorf("expected activity depth 3, got %d", cfg.Directory.ActivityDepth)
	}
	if cfg.Telemetry.ServiceName != "orgdirectory-api" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Geocoder.TimeoutDuration().Seconds() != 5 {
		t.Errorf("expected 5s geocoder timeout, got %s", cfg.Geocoder.TimeoutDuration())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ORGDIR_SERVER_PORT", "9090")
	t.Setenv("ORGDIR_SERVER_API_KEY", "secret")
	t.Setenv("ORGDIR_DIRECTORY_ACTIVITY_DEPTH", "4")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Server.APIKey)
	}
	if cfg.Directory.ActivityDepth != 4 {
		t.Errorf("expected depth 4, got %d", cfg.Directory.ActivityDepth)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "directory.activity_depth", "geocoder.base_url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error:\n%v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "db", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://u:p@h:5432/db?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
