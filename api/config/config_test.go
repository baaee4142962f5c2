package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voicesearch/pkg/broker"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Expected port 8081, got %s", cfg.Port)
	}
	if cfg.Broker.Exchange != broker.DefaultExchange {
		t.Errorf("Expected exchange %s, got %s", broker.DefaultExchange, cfg.Broker.Exchange)
	}
	if cfg.TaskTTL != 300*time.Second {
		t.Errorf("Expected 300s task ttl, got %s", cfg.TaskTTL)
	}
}

func TestLoad_KafkaBrokersList(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", "")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Broker.Brokers) != 2 {
		t.Errorf("Expected 2 brokers, got %v", cfg.Broker.Brokers)
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	data := []byte(`
max_file_size: 1048576
broker:
  brokers: ["kafka:9092"]
  publish_timeout: 2s
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GATEWAY_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("Expected 1MiB, got %d", cfg.MaxFileSize)
	}
	if cfg.Broker.PublishTimeout != 2*time.Second {
		t.Errorf("Expected 2s publish timeout, got %s", cfg.Broker.PublishTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}
