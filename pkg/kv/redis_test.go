package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "tt0133093-movies", []byte(`{"id":"tt0133093"}`), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, found, err := c.Get(ctx, "tt0133093-movies")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(data) != `{"id":"tt0133093"}` {
		t.Errorf("Unexpected value %s", data)
	}
}

func TestRedisCache_MissingKeyIsNotAnError(t *testing.T) {
	c, _ := newTestRedisCache(t)

	data, found, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found || data != nil {
		t.Errorf("Expected absent key, got found=%v data=%q", found, data)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	mr.FastForward(301 * time.Second)

	if _, found, err := c.Get(ctx, "k"); err != nil || found {
		t.Errorf("Expected expired key, got found=%v err=%v", found, err)
	}
}

func TestRedisCache_CloseTwice(t *testing.T) {
	c, _ := newTestRedisCache(t)

	if err := c.Close(); err != nil {
		t.Fatalf("First close error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected second close to be tolerated, got %v", err)
	}
}

func TestRedisCache_PingFailsWhenServerDown(t *testing.T) {
	c, mr := newTestRedisCache(t)
	mr.Close()

	if err := c.Ping(context.Background()); err == nil {
		t.Error("Expected ping error")
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), Config{Driver: "memcached", Addrs: []string{"localhost:1"}})
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestConnect_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect(context.Background(), Config{Driver: DriverRedis, Addrs: []string{mr.Addr()}})
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*RedisCache); !ok {
		t.Errorf("Expected *RedisCache, got %T", c)
	}
}
