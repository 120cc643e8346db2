// Package config loads engine tunables from an optional YAML file with
// environment variable overrides.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ortelius/deptree-backend/util"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	Port        string `yaml:"port"`
	RegistryURL string `yaml:"registry_url"`
	OSVURL      string `yaml:"osv_url"`

	CacheTTLMinutes    int `yaml:"cache_ttl_minutes"`
	StaleWindowMinutes int `yaml:"stale_window_minutes"`

	FetchConcurrency int `yaml:"fetch_concurrency"`
	QueryConcurrency int `yaml:"query_concurrency"`
	BatchSize        int `yaml:"batch_size"`
	MaxDepth         int `yaml:"max_depth"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

func defaults() Config {
	return Config{
		Port:               "3000",
		CacheTTLMinutes:    5,
		StaleWindowMinutes: 15,
		FetchConcurrency:   10,
		QueryConcurrency:   10,
		BatchSize:          100,
		MaxDepth:           0,
	}
}

// Load reads the config file named by DEPTREE_CONFIG (default
// config.yaml) when it exists, then applies env var overrides. A
// missing file is not an error; env vars alone are a full config.
func Load() Config {
	cfg := defaults()

	path := util.GetEnvDefault("DEPTREE_CONFIG", "config.yaml")
	if content, err := os.ReadFile(path); err == nil {
		// Unparseable config is a startup-time mistake worth failing
		// loudly on, but a simply absent file is the common case.
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			panic("invalid config file " + path + ": " + err.Error())
		}
	}

	cfg.Port = util.GetEnvDefault("MS_PORT", cfg.Port)
	cfg.RegistryURL = util.GetEnvDefault("NPM_REGISTRY_URL", cfg.RegistryURL)
	cfg.OSVURL = util.GetEnvDefault("OSV_API_URL", cfg.OSVURL)
	cfg.CacheTTLMinutes = util.GetEnvIntDefault("CACHE_TTL_MINUTES", cfg.CacheTTLMinutes)
	cfg.StaleWindowMinutes = util.GetEnvIntDefault("CACHE_STALE_WINDOW_MINUTES", cfg.StaleWindowMinutes)
	cfg.FetchConcurrency = util.GetEnvIntDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.QueryConcurrency = util.GetEnvIntDefault("QUERY_CONCURRENCY", cfg.QueryConcurrency)
	cfg.BatchSize = util.GetEnvIntDefault("OSV_BATCH_SIZE", cfg.BatchSize)
	cfg.MaxDepth = util.GetEnvIntDefault("MAX_DEPTH", cfg.MaxDepth)
	cfg.RedisAddr = util.GetEnvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = util.GetEnvDefault("REDIS_PASS", cfg.RedisPassword)
	cfg.RedisDB = util.GetEnvIntDefault("REDIS_DB", cfg.RedisDB)

	return cfg
}

// CacheTTL returns the packument cache freshness window.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// StaleWindow returns the stale-while-revalidate window.
func (c Config) StaleWindow() time.Duration {
	return time.Duration(c.StaleWindowMinutes) * time.Minute
}
