package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voicesearch/pkg/kv"
)

const (
	statusKeyPrefix = "task:status:"
	DefaultTTL      = 300 * time.Second
)

var ErrEmptyID = errors.New("task id is empty")

// Store keeps task status records and results in the shared cache. Results
// are stored under the bare task id so any service holding the id can
// deliver them; status records live under a prefixed key.
type Store struct {
	cache kv.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(cache kv.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: cache, ttl: ttl, now: time.Now}
}

func statusKey(id string) string {
	return fmt.Sprintf("%s%s", statusKeyPrefix, id)
}

func (s *Store) Create(ctx context.Context, id string) error {
	return s.write(ctx, id, StatusPending, StageReceived, "")
}

func (s *Store) Advance(ctx context.Context, id string, stage Stage) error {
	return s.write(ctx, id, StatusProcessing, stage, "")
}

func (s *Store) Complete(ctx context.Context, id string) error {
	return s.write(ctx, id, StatusCompleted, StageCompleted, "")
}

func (s *Store) Drop(ctx context.Context, id, reason string) error {
	return s.write(ctx, id, StatusDropped, StageDropped, reason)
}

// Fail records that the task stopped at stage because of cause.
func (s *Store) Fail(ctx context.Context, id string, stage Stage, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.write(ctx, id, StatusFailed, stage, msg)
}

func (s *Store) write(ctx context.Context, id string, status TaskStatus, stage Stage, msg string) error {
	if id == "" {
		return ErrEmptyID
	}

	data, err := json.Marshal(Record{
		ID:        id,
		Status:    status,
		Stage:     stage,
		Error:     msg,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, statusKey(id), data, s.ttl); err != nil {
		return fmt.Errorf("write task status: %w", err)
	}
	return nil
}

func (s *Store) Status(ctx context.Context, id string) (*Record, bool, error) {
	data, found, err := s.cache.Get(ctx, statusKey(id))
	if err != nil || !found {
		return nil, false, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode task status: %w", err)
	}
	return &rec, true, nil
}

// PutResult stores the JSON encoding of value as the task's result.
func (s *Store) PutResult(ctx context.Context, id string, value any) error {
	if id == "" {
		return ErrEmptyID
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}

	if err := s.cache.Set(ctx, id, data, s.ttl); err != nil {
		return fmt.Errorf("write task result: %w", err)
	}
	return nil
}

func (s *Store) Result(ctx context.Context, id string) (json.RawMessage, bool, error) {
	data, found, err := s.cache.Get(ctx, id)
	if err != nil || !found {
		return nil, false, err
	}
	return json.RawMessage(data), true, nil
}
