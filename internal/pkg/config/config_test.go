package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("sitescout-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Sampling.Scale != 5000 || cfg.Sampling.NumPixels != 500 {
		t.Errorf("unexpected sampling defaults: %+v", cfg.Sampling)
	}
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("expected ttl 3600, got %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Temporal.TaskQueue != "site-analysis" {
		t.Errorf("unexpected task queue %q", cfg.Temporal.TaskQueue)
	}
	if cfg.Telemetry.ServiceName != "sitescout-test" {
		t.Errorf("unexpected service name %q", cfg.Telemetry.ServiceName)
	}
	if cfg.EarthEngine.TimeoutDuration() != 45*time.Second {
		t.Errorf("unexpected engine timeout %v", cfg.EarthEngine.TimeoutDuration())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SITESCOUT_EARTHENGINE_PROJECT", "demo-project")
	t.Setenv("SITESCOUT_SAMPLING_NUM_PIXELS", "250")
	t.Setenv("SITESCOUT_DATABASE_HOST", "db.internal")

	cfg, err := Load("sitescout-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EarthEngine.Project != "demo-project" {
		t.Errorf("expected project override, got %q", cfg.EarthEngine.Project)
	}
	if cfg.Sampling.NumPixels != 250 {
		t.Errorf("expected 250 pixels, got %d", cfg.Sampling.NumPixels)
	}
	if cfg.Database.DSN() != "postgres://sitescout:@db.internal:5432/sitescout?sslmode=disable" {
		t.Errorf("unexpected dsn %q", cfg.Database.DSN())
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("SITESCOUT_SAMPLING_SCALE", "0")
	t.Setenv("SITESCOUT_LOG_FORMAT", "xml")

	_, err := Load("sitescout-test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"sampling.scale", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestRequireEarthEngine(t *testing.T) {
	c := &Config{}
	if err := c.RequireEarthEngine(); err == nil {
		t.Error("expected error without credentials")
	}
	c.EarthEngine.AccessToken = "tok"
	if err := c.RequireEarthEngine(); err == nil {
		t.Error("expected error without project")
	}
	c.EarthEngine.Project = "p"
	if err := c.RequireEarthEngine(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	keyOnly := &Config{EarthEngine: EarthEngineConfig{CredentialsFile: "/etc/sitescout/key.json"}}
	if err := keyOnly.RequireEarthEngine(); err != nil {
		t.Errorf("credentials file alone should do: %v", err)
	}
}
