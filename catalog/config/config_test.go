package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", cfg.Port)
	}
	if cfg.Indexes.Movies != "movies" || cfg.Indexes.Persons != "persons" {
		t.Errorf("Unexpected indexes %+v", cfg.Indexes)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("Expected 300s cache ttl, got %s", cfg.CacheTTL)
	}
	if len(cfg.Cache.Addrs) != 1 || cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("Unexpected cache addrs %v", cfg.Cache.Addrs)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "")
	t.Setenv("ELASTIC_ADDR", "http://es1:9200, http://es2:9200")
	t.Setenv("CACHE_TTL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Elastic.Addresses) != 2 || cfg.Elastic.Addresses[1] != "http://es2:9200" {
		t.Errorf("Unexpected elastic addresses %v", cfg.Elastic.Addresses)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("Expected 1m, got %s", cfg.CacheTTL)
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
port: "9100"
cache:
  driver: valkey
  addrs: ["${CATALOG_TEST_VALKEY:-valkey:6379}"]
indexes:
  movies: films_v2
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CATALOG_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Expected port 9100, got %s", cfg.Port)
	}
	if cfg.Cache.Driver != "valkey" || cfg.Cache.Addrs[0] != "valkey:6379" {
		t.Errorf("Unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Indexes.Movies != "films_v2" || cfg.Indexes.Genres != "genres" {
		t.Errorf("Expected overlay to keep untouched defaults, got %+v", cfg.Indexes)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:      "abc",
		Indexes:   IndexConfig{Movies: "movies"},
		CacheTTL:  time.Second,
		ResultTTL: 0,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation error")
	}
}
