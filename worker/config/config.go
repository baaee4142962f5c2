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
	"voicesearch/pkg/tasks"
	"voicesearch/worker/catalog"
	"voicesearch/worker/speech"
)

type Config struct {
	Env            string              `yaml:"env"`
	LogLevel       string              `yaml:"log_level"`
	MetricsAddr    string              `yaml:"metrics_addr"`
	Broker         broker.Config       `yaml:"broker"`
	Queue          string              `yaml:"queue"`
	BindingKeys    []string            `yaml:"binding_keys"`
	WorkerCount    int                 `yaml:"worker_count"`
	Cache          kv.Config           `yaml:"cache"`
	TaskTTL        time.Duration       `yaml:"task_ttl"`
	Speech         speech.Config       `yaml:"speech"`
	CatalogURL     string              `yaml:"catalog_url"`
	CatalogTimeout time.Duration       `yaml:"catalog_timeout"`
	CatalogRetry   catalog.RetryConfig `yaml:"catalog_retry"`
}

// Load builds the configuration from the environment and, when
// WORKER_CONFIG names a file, overlays it.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ":9100"),
		Broker: broker.Config{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Exchange:      getEnv("BROKER_EXCHANGE", broker.DefaultExchange),
			ClientID:      getEnv("BROKER_CLIENT_ID", "voicesearch-worker"),
			MaxDeliveries: getEnvAsInt("BROKER_MAX_DELIVERIES", broker.DefaultMaxDeliveries),
		},
		Queue:       getEnv("KAFKA_GROUP_ID", "voice_service"),
		BindingKeys: splitList(getEnv("BINDING_KEYS", tasks.RoutingKeyFiles)),
		WorkerCount: getEnvAsInt("WORKER_COUNT", 5),
		Cache: kv.Config{
			Driver:   getEnv("CACHE_DRIVER", kv.DriverRedis),
			Addrs:    splitList(getEnv("REDIS_ADDR", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		TaskTTL: getEnvAsDuration("TASK_TTL", 300*time.Second),
		Speech: speech.Config{
			Driver:         getEnv("SPEECH_DRIVER", speech.DriverVosk),
			VoskURL:        getEnv("VOSK_URL", "ws://localhost:2700"),
			WhisperBaseURL: getEnv("WHISPER_BASE_URL", ""),
			WhisperAPIKey:  getEnv("WHISPER_API_KEY", ""),
			WhisperModel:   getEnv("WHISPER_MODEL", ""),
			Language:       getEnv("SPEECH_LANGUAGE", ""),
			Timeout:        getEnvAsDuration("SPEECH_TIMEOUT", 60*time.Second),
		},
		CatalogURL:     getEnv("SEARCH_SERVICE", "http://localhost:8000"),
		CatalogTimeout: getEnvAsDuration("SEARCH_SERVICE_TIMEOUT", 30*time.Second),
	}

	if path := os.Getenv("WORKER_CONFIG"); path != "" {
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
	if len(c.Broker.Brokers) == 0 {
		errs = append(errs, broker.ErrNoBrokers)
	}
	if c.Queue == "" {
		errs = append(errs, errors.New("queue is required"))
	}
	if len(c.BindingKeys) == 0 {
		errs = append(errs, errors.New("at least one binding key is required"))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("worker_count must be >= 1, got %d", c.WorkerCount))
	}
	if len(c.Cache.Addrs) == 0 {
		errs = append(errs, errors.New("cache addrs is required"))
	}
	if c.CatalogURL == "" {
		errs = append(errs, errors.New("catalog_url is required"))
	}
	switch c.Speech.Driver {
	case speech.DriverVosk:
		if c.Speech.VoskURL == "" {
			errs = append(errs, errors.New("speech.vosk_url is required for the vosk driver"))
		}
	case speech.DriverWhisper:
		if c.Speech.WhisperAPIKey == "" && c.Speech.WhisperBaseURL == "" {
			errs = append(errs, errors.New("speech.whisper_api_key or whisper_base_url is required for the whisper driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", speech.ErrUnknownDriver, c.Speech.Driver))
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
