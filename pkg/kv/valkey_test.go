package kv

import (
	"context"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

func TestValkeyCache_GetHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "genres-name-desc-50-1")).
		Return(mock.Result(mock.RedisString(`[{"id":"g1"}]`)))

	c := NewValkeyCache(client)
	data, found, err := c.Get(context.Background(), "genres-name-desc-50-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found || string(data) != `[{"id":"g1"}]` {
		t.Errorf("Unexpected result found=%v data=%s", found, data)
	}
}

func TestValkeyCache_GetMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "absent")).
		Return(mock.Result(mock.RedisNil()))

	c := NewValkeyCache(client)
	_, found, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Expected no error on miss, got %v", err)
	}
	if found {
		t.Error("Expected miss")
	}
}

func TestValkeyCache_GetError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	c := NewValkeyCache(client)
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Error("Expected error")
	}
}

func TestValkeyCache_SetWithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "300")).
		Return(mock.Result(mock.RedisString("OK")))

	c := NewValkeyCache(client)
	if err := c.Set(context.Background(), "k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
}

func TestValkeyCache_CloseOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)

	client.EXPECT().Close().Times(1)

	c := NewValkeyCache(client)
	c.Close()
	c.Close()
}
