package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"shipmap/internal/pipeline"
)

// BoundingBox is the tracked region in decimal degrees.
type BoundingBox struct {
	South float64 `yaml:"south" validate:"gte=-90,lte=90,ltfield=North"`
	West  float64 `yaml:"west" validate:"gte=-180,lte=180,ltfield=East"`
	North float64 `yaml:"north" validate:"gte=-90,lte=90"`
	East  float64 `yaml:"east" validate:"gte=-180,lte=180"`
}

func (b BoundingBox) Region() pipeline.Region {
	return pipeline.Region{South: b.South, West: b.West, North: b.North, East: b.East}
}

type Config struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	PushURL        string        `yaml:"push_url" validate:"omitempty,url"`
	PollInterval   time.Duration `yaml:"poll_interval" validate:"gt=0"`
	StatsInterval  time.Duration `yaml:"stats_interval" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	MetricsPort    string        `yaml:"metrics_port" validate:"omitempty,numeric"`
	RedisAddr      string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPrefix    string        `yaml:"redis_prefix"`
	GRPCServer     string        `yaml:"grpc_server" validate:"omitempty,hostname_port"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Region         BoundingBox   `yaml:"region"`
}

// Default is the configuration before any file or environment is applied.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		PushURL:        "ws://localhost:8000/ws",
		PollInterval:   30 * time.Second,
		StatsInterval:  30 * time.Second,
		RequestTimeout: 10 * time.Second,
		MetricsPort:    "9000",
		RedisPrefix:    "shipmap",
		LogLevel:       "info",
		Region:         BoundingBox{South: 68.0, West: 14.0, North: 74.0, East: 41.0},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (SHIPMAP_CONFIG when path is empty, skipped if both are empty), then the
// environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SHIPMAP_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.BaseURL = getEnv("SHIPMAP_BASE_URL", cfg.BaseURL)
	cfg.PushURL = getEnv("SHIPMAP_WS_URL", cfg.PushURL)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPrefix = getEnv("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.GRPCServer = getEnv("GRPC_SERVER", cfg.GRPCServer)
	cfg.LogLevel = strings.ToLower(getEnv("SHIPMAP_LOG_LEVEL", cfg.LogLevel))

	var err error
	if cfg.PollInterval, err = getDuration("SHIPMAP_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.StatsInterval, err = getDuration("SHIPMAP_STATS_INTERVAL", cfg.StatsInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = getDuration("SHIPMAP_REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Region, err = getBox("SHIPMAP_REGION", cfg.Region); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// getBox parses "south,west,north,east".
func getBox(key string, fallback BoundingBox) (BoundingBox, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parts := strings.Split(val, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%s: want south,west,north,east", key)
	}
	var f [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%s: %w", key, err)
		}
		f[i] = v
	}
	return BoundingBox{South: f[0], West: f[1], North: f[2], East: f[3]}, nil
}
