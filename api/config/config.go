package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voicesearch/pkg/broker"
	"voicesearch/pkg/configfile"
	"voicesearch/pkg/kv"
)

type Config struct {
	Port        string        `yaml:"port"`
	Env         string        `yaml:"env"`
	LogLevel    string        `yaml:"log_level"`
	Broker      broker.Config `yaml:"broker"`
	Cache       kv.Config     `yaml:"cache"`
	MaxFileSize int64         `yaml:"max_file_size"`
	TaskTTL     time.Duration `yaml:"task_ttl"`
	RateLimit   float64       `yaml:"rate_limit_rps"`
	RateBurst   int           `yaml:"rate_limit_burst"`
}

// Load builds the configuration from the environment and, when
// GATEWAY_CONFIG names a file, overlays it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("SERVICE_PORT", "8081"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Broker: broker.Config{
			Brokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Exchange:       getEnv("BROKER_EXCHANGE", broker.DefaultExchange),
			ClientID:       getEnv("BROKER_CLIENT_ID", "voicesearch-gateway"),
			PublishTimeout: getEnvAsDuration("BROKER_PUBLISH_TIMEOUT", broker.DefaultPublishTimeout),
		},
		Cache: kv.Config{
			Driver:   getEnv("CACHE_DRIVER", kv.DriverRedis),
			Addrs:    splitList(getEnv("REDIS_ADDR", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 25*1024*1024),
		TaskTTL:     getEnvAsDuration("TASK_TTL", 300*time.Second),
		RateLimit:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateBurst:   getEnvAsInt("RATE_LIMIT_BURST", 20),
	}

	if path := os.Getenv("GATEWAY_CONFIG"); path != "" {
		if err := configfile.Load(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.Broker.ApplyDefaults()

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
	if len(c.Broker.Brokers) == 0 {
		errs = append(errs, broker.ErrNoBrokers)
	}
	if len(c.Cache.Addrs) == 0 {
		errs = append(errs, errors.New("cache addrs is required"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max_file_size must be positive"))
	}
	if c.TaskTTL <= 0 {
		errs = append(errs, errors.New("task_ttl must be positive"))
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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
