package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TelegramConfig holds the chat transport settings.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// AdminIDs receive operator notifications.
	AdminIDs []int64 `yaml:"admin_ids"`
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`
}

// HostConfig holds the image host settings.
type HostConfig struct {
	// Backend selects the image host: "s3" or "memory".
	Backend string `yaml:"backend"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"` // custom endpoint for MinIO compatibility
	// PublicBaseURL is the externally reachable root the bucket is served at.
	PublicBaseURL string `yaml:"public_base_url"`
	// CachePath is the sqlite file caching name -> URL lookups. Empty
	// disables the cache.
	CachePath string `yaml:"cache_path"`
	// CacheTTL is how long cached lookups stay valid.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CachePurgeSchedule is a cron expression for the purge job.
	CachePurgeSchedule string `yaml:"cache_purge_schedule"`
}

// EnginesConfig holds per-provider settings.
type EnginesConfig struct {
	SauceNAOAPIKey string `yaml:"saucenao_api_key"`
	// Disabled lists engine names excluded from the registry.
	Disabled []string `yaml:"disabled"`
}

// SearchConfig tunes the search passes.
type SearchConfig struct {
	// MaxConcurrentLookups caps the fan-out worker pool.
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups"`
	// EditsPerSecond paces keyboard edits against chat API limits.
	EditsPerSecond float64 `yaml:"edits_per_second"`
	// LookupTimeout bounds one pre-work or best-match call.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// Config is the top-level application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Host     HostConfig     `yaml:"host"`
	Engines  EnginesConfig  `yaml:"engines"`
	Search   SearchConfig   `yaml:"search"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		Host: HostConfig{
			Backend:            "s3",
			Prefix:             "images/",
			CacheTTL:           720 * time.Hour,
			CachePurgeSchedule: "17 3 * * *",
		},
		Search: SearchConfig{
			MaxConcurrentLookups: 5,
			EditsPerSecond:       1,
			LookupTimeout:        20 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays IMAGEHOUND_* environment variables onto cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IMAGEHOUND_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("IMAGEHOUND_TELEGRAM_ADMIN_IDS"); v != "" {
		var ids []int64
		for _, part := range strings.Split(v, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.Telegram.AdminIDs = ids
		}
	}
	if v := os.Getenv("IMAGEHOUND_HOST_BACKEND"); v != "" {
		cfg.Host.Backend = v
	}
	if v := os.Getenv("IMAGEHOUND_HOST_BUCKET"); v != "" {
		cfg.Host.Bucket = v
	}
	if v := os.Getenv("IMAGEHOUND_HOST_REGION"); v != "" {
		cfg.Host.Region = v
	}
	if v := os.Getenv("IMAGEHOUND_HOST_ENDPOINT"); v != "" {
		cfg.Host.Endpoint = v
	}
	if v := os.Getenv("IMAGEHOUND_HOST_PUBLIC_BASE_URL"); v != "" {
		cfg.Host.PublicBaseURL = v
	}
	if v := os.Getenv("IMAGEHOUND_SAUCENAO_API_KEY"); v != "" {
		cfg.Engines.SauceNAOAPIKey = v
	}
	if v := os.Getenv("IMAGEHOUND_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("IMAGEHOUND_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("IMAGEHOUND_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// Validate checks cfg for values that cannot work at runtime.
func Validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	switch cfg.Host.Backend {
	case "s3":
		if cfg.Host.Bucket == "" {
			return fmt.Errorf("host.bucket is required for the s3 backend")
		}
		if cfg.Host.PublicBaseURL == "" {
			return fmt.Errorf("host.public_base_url is required for the s3 backend")
		}
	case "memory":
	default:
		return fmt.Errorf("host.backend must be s3 or memory, got %q", cfg.Host.Backend)
	}
	if cfg.Search.MaxConcurrentLookups <= 0 {
		return fmt.Errorf("search.max_concurrent_lookups must be positive")
	}
	if cfg.Search.EditsPerSecond <= 0 {
		return fmt.Errorf("search.edits_per_second must be positive")
	}
	switch cfg.Logger.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logger.level %q is not valid", cfg.Logger.Level)
	}
	return nil
}
