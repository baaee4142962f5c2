package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voicesearch/catalog/elastic"
	"voicesearch/pkg/configfile"
	"voicesearch/pkg/kv"
)

type IndexConfig struct {
	Movies  string `yaml:"movies"`
	Genres  string `yaml:"genres"`
	Persons string `yaml:"persons"`
}

type Config struct {
	Port      string         `yaml:"port"`
	Env       string         `yaml:"env"`
	LogLevel  string         `yaml:"log_level"`
	Cache     kv.Config      `yaml:"cache"`
	Elastic   elastic.Config `yaml:"elastic"`
	Indexes   IndexConfig    `yaml:"indexes"`
	CacheTTL  time.Duration  `yaml:"cache_ttl"`
	ResultTTL time.Duration  `yaml:"result_ttl"`
	RateLimit float64        `yaml:"rate_limit_rps"`
	RateBurst int            `yaml:"rate_limit_burst"`
}

// Load builds the configuration from the environment and, when
// CATALOG_CONFIG names a file, overlays it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("SERVICE_PORT", "8000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Cache: kv.Config{
			Driver:   getEnv("CACHE_DRIVER", kv.DriverRedis),
			Addrs:    splitList(getEnv("REDIS_ADDR", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Elastic: elastic.Config{
			Addresses: splitList(getEnv("ELASTIC_ADDR", "http://localhost:9200")),
			Username:  getEnv("ELASTIC_USERNAME", ""),
			Password:  getEnv("ELASTIC_PASSWORD", ""),
		},
		Indexes: IndexConfig{
			Movies:  getEnv("INDEX_MOVIES", "movies"),
			Genres:  getEnv("INDEX_GENRES", "genres"),
			Persons: getEnv("INDEX_PERSONS", "persons"),
		},
		CacheTTL:  getEnvAsDuration("CACHE_TTL", 300*time.Second),
		ResultTTL: getEnvAsDuration("RESULT_TTL", 300*time.Second),
		RateLimit: getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
	}

	if path := os.Getenv("CATALOG_CONFIG"); path != "" {
		if err := configfile.Load(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port must be numeric, got %q", c.Port))
	}
	if len(c.Cache.Addrs) == 0 {
		errs = append(errs, errors.New("cache addrs is required"))
	}
	if len(c.Elastic.Addresses) == 0 {
		errs = append(errs, errors.New("elastic addresses is required"))
	}
	if c.Indexes.Movies == "" || c.Indexes.Genres == "" || c.Indexes.Persons == "" {
		errs = append(errs, errors.New("index names must not be empty"))
	}
	if c.CacheTTL <= 0 || c.ResultTTL <= 0 {
		errs = append(errs, errors.New("cache_ttl and result_ttl must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
