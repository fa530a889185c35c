package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHIPMAP_CONFIG", "SHIPMAP_BASE_URL", "SHIPMAP_WS_URL", "SHIPMAP_POLL_INTERVAL",
		"SHIPMAP_STATS_INTERVAL", "SHIPMAP_REQUEST_TIMEOUT", "SHIPMAP_REGION", "SHIPMAP_LOG_LEVEL",
		"METRICS_PORT", "REDIS_ADDR", "REDIS_PREFIX", "GRPC_SERVER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.PollInterval != 30*time.Second || cfg.StatsInterval != 30*time.Second {
		t.Errorf("intervals = %v/%v", cfg.PollInterval, cfg.StatsInterval)
	}
	if cfg.Region != (BoundingBox{South: 68, West: 14, North: 74, East: 41}) {
		t.Errorf("region = %+v", cfg.Region)
	}
	if cfg.RedisAddr != "" || cfg.GRPCServer != "" {
		t.Errorf("optional sinks enabled by default: %q %q", cfg.RedisAddr, cfg.GRPCServer)
	}
	if !cfg.Region.Region().Contains(70, 20) || cfg.Region.Region().Contains(60, 20) {
		t.Error("default region bounds wrong")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shipmap.yml")
	yml := `
base_url: http://ships.internal:8000
poll_interval: 10s
redis_addr: redis:6379
region:
  south: 59
  west: 19
  north: 66
  east: 30
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHIPMAP_POLL_INTERVAL", "5s")
	t.Setenv("SHIPMAP_LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://ships.internal:8000" || cfg.RedisAddr != "redis:6379" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("poll interval = %v, env should win", cfg.PollInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Region.South != 59 || cfg.Region.East != 30 {
		t.Errorf("region = %+v", cfg.Region)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, val, want string
	}{
		{"bad duration", "SHIPMAP_POLL_INTERVAL", "often", "SHIPMAP_POLL_INTERVAL"},
		{"zero interval", "SHIPMAP_STATS_INTERVAL", "0s", "StatsInterval"},
		{"bad url", "SHIPMAP_BASE_URL", "not a url", "BaseURL"},
		{"bad level", "SHIPMAP_LOG_LEVEL", "loud", "LogLevel"},
		{"inverted region", "SHIPMAP_REGION", "74,14,68,41", "South"},
		{"short region", "SHIPMAP_REGION", "1,2,3", "SHIPMAP_REGION"},
		{"bad redis addr", "REDIS_ADDR", "redis", "RedisAddr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			if err == nil {
				t.Fatalf("Load() with %s=%q succeeded", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}

func TestLoadPathBeatsConfigEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	write := func(name, prefix string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("redis_prefix: "+prefix+"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}
	envFile := write("env.yml", "fromenv")
	flagFile := write("flag.yml", "fromflag")
	t.Setenv("SHIPMAP_CONFIG", envFile)

	cfg, err := Load(flagFile)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.RedisPrefix != "fromflag" {
		t.Errorf("prefix = %q, want the explicit path to win", cfg.RedisPrefix)
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.RedisPrefix != "fromenv" {
		t.Errorf("prefix = %q, want SHIPMAP_CONFIG used without a path", cfg.RedisPrefix)
	}
}
