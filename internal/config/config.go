package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultFeedURL  = "https://cmgds.marine.usgs.gov/data/whcmsc/data-release/doi-F73J3B0B/data/shorelines/mass_shorelines_1800s_to_2018.csv"
	defaultProxyURL = "https://cors-anywhere.herokuapp.com/"
)

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	DevMode bool

	ServerPort string

	BackendAPIURL     string
	BackendAPITimeout time.Duration

	RequestTimeout time.Duration

	FeedURL             string
	FeedProxyURL        string
	FeedTimeout         time.Duration
	FeedCacheTTL        time.Duration // 0 disables caching
	FeedRefreshSchedule string        // cron spec; only used when FeedCacheTTL > 0
	FeedCoalesceTimeout time.Duration // 0 disables coalescing

	FeedBreakerEnabled          bool
	FeedBreakerFailureThreshold int
	FeedBreakerSuccessThreshold int
	FeedBreakerTimeout          time.Duration

	MapDefaultProvider string
	MapTilesAPIKey     string
	MapClickTolerance  float64 // degrees
	MapMaxHandles      int

	CacheBackend string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
}

type fileConfig struct {
	DevMode *bool `yaml:"dev_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	BackendAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"backend_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Feed struct {
		URL             string `yaml:"url"`
		ProxyURL        string `yaml:"proxy_url"`
		Timeout         string `yaml:"timeout"`
		CacheTTL        string `yaml:"cache_ttl"`
		RefreshSchedule string `yaml:"refresh_schedule"`
		CoalesceTimeout string `yaml:"coalesce_timeout"`
		CircuitBreaker  struct {
			Enabled          bool   `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"feed"`

	Map struct {
		DefaultProvider string  `yaml:"default_provider"`
		ClickTolerance  float64 `yaml:"click_tolerance"`
		MaxHandles      int     `yaml:"max_handles"`
	} `yaml:"map"`

	Cache struct {
		Backend   string `yaml:"backend"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative to
// the working directory. A .env file in the working directory, when present, is
// loaded first; variables already set in the environment win over it.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := fromFile(&fc)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc *fileConfig) *Config {
	cfg := &Config{}
	if fc.DevMode != nil {
		cfg.DevMode = *fc.DevMode
	}

	cfg.ServerPort = orDefault(fc.Server.Port, "8080")

	cfg.BackendAPIURL = orDefault(fc.BackendAPI.URL, "http://localhost:8081")
	cfg.BackendAPITimeout = parseDurationOrZero(fc.BackendAPI.Timeout, 5*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.FeedURL = orDefault(fc.Feed.URL, defaultFeedURL)
	cfg.FeedProxyURL = orDefault(fc.Feed.ProxyURL, defaultProxyURL)
	cfg.FeedTimeout = parseDuration(fc.Feed.Timeout, 10*time.Second)
	cfg.FeedCacheTTL = parseDurationOrZero(fc.Feed.CacheTTL, 0)
	cfg.FeedRefreshSchedule = strings.TrimSpace(fc.Feed.RefreshSchedule)
	cfg.FeedCoalesceTimeout = parseDurationOrZero(fc.Feed.CoalesceTimeout, 0)
	cfg.FeedBreakerEnabled = fc.Feed.CircuitBreaker.Enabled
	cfg.FeedBreakerFailureThreshold = orDefaultInt(fc.Feed.CircuitBreaker.FailureThreshold, 3)
	cfg.FeedBreakerSuccessThreshold = orDefaultInt(fc.Feed.CircuitBreaker.SuccessThreshold, 1)
	cfg.FeedBreakerTimeout = parseDuration(fc.Feed.CircuitBreaker.Timeout, time.Minute)

	cfg.MapDefaultProvider = strings.ToLower(orDefault(fc.Map.DefaultProvider, "openlayers"))
	cfg.MapClickTolerance = fc.Map.ClickTolerance
	if cfg.MapClickTolerance <= 0 {
		cfg.MapClickTolerance = 0.05
	}
	cfg.MapMaxHandles = orDefaultInt(fc.Map.MaxHandles, 256)

	cfg.CacheBackend = strings.ToLower(orDefault(fc.Cache.Backend, "in_memory"))
	cfg.MemcachedAddrs = orDefault(fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = orDefaultInt(fc.Cache.Memcached.MaxIdleConns, 2)

	cfg.RateLimitRPS = orDefaultInt(fc.Reliability.RateLimitRPS, 50)
	cfg.RateLimitBurst = orDefaultInt(fc.Reliability.RateLimitBurst, 100)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = orDefaultInt(fc.Lifecycle.OverloadThresholdPct, 80)
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = orDefaultInt(fc.Lifecycle.DegradedErrorPct, 50)
	return cfg
}

// applyEnv overrides file values with BACKEND_API_URL, MAP_TILES_API_KEY,
// CACHE_BACKEND, MEMCACHED_ADDRS and DEV_MODE.
func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("BACKEND_API_URL")); v != "" {
		cfg.BackendAPIURL = v
	}
	cfg.MapTilesAPIKey = strings.TrimSpace(os.Getenv("MAP_TILES_API_KEY"))
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND"))); v != "" {
		cfg.CacheBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")); v != "" {
		cfg.MemcachedAddrs = v
	}
	if v := strings.TrimSpace(os.Getenv("DEV_MODE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEV_MODE must be a boolean, got %q", v)
		}
		cfg.DevMode = b
	}
	return nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func orDefaultInt(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero and negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate checks loaded values. RequestTimeout is raised above the backend
// timeout so a slow backend surfaces as an upstream error, not a request timeout.
func validate(cfg *Config) error {
	if cfg.BackendAPITimeout <= 0 {
		return fmt.Errorf("backend_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.BackendAPITimeout {
		cfg.RequestTimeout = cfg.BackendAPITimeout + time.Second
	}
	if cfg.FeedCacheTTL < 0 {
		return fmt.Errorf("feed.cache_ttl must not be negative")
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	switch cfg.MapDefaultProvider {
	case "openlayers", "simple":
	default:
		return fmt.Errorf("map.default_provider must be openlayers or simple, got %q", cfg.MapDefaultProvider)
	}
	return nil
}
