package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"voicesearch/pkg/broker"
)

type fakeConsumer struct {
	consumeErr error
	started    *atomic.Int32
	closed     atomic.Bool
}

func (f *fakeConsumer) Consume(ctx context.Context, _ []string, _ broker.Handler) error {
	f.started.Add(1)
	if f.consumeErr != nil {
		return f.consumeErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error {
	f.closed.Store(true)
	return nil
}

func noopHandler(context.Context, *broker.Delivery) error { return nil }

func TestWorkerPool_RunUntilCancelled(t *testing.T) {
	var started atomic.Int32
	var created []*fakeConsumer
	p, err := NewWorkerPool(3, func(int) (Consumer, error) {
		c := &fakeConsumer{started: &started}
		created = append(created, c)
		return c, nil
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}
	if p.Size() != 3 {
		t.Fatalf("Expected 3 workers, got %d", p.Size())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, []string{"events.files"}, noopHandler) }()

	deadline := time.Now().Add(time.Second)
	for started.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if started.Load() != 3 {
		t.Fatalf("Expected 3 consumers started, got %d", started.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	p.Close()
	for i, c := range created {
		if !c.closed.Load() {
			t.Errorf("consumer %d not closed", i)
		}
	}
}

func TestWorkerPool_FailureStopsOthers(t *testing.T) {
	var started atomic.Int32
	boom := errors.New("kafka: client has run out of available brokers")
	p, _ := NewWorkerPool(2, func(id int) (Consumer, error) {
		c := &fakeConsumer{started: &started}
		if id == 1 {
			c.consumeErr = boom
		}
		return c, nil
	}, zaptest.NewLogger(t))

	err := p.Run(context.Background(), []string{"events.files"}, noopHandler)
	if !errors.Is(err, boom) {
		t.Errorf("Expected consumer error, got %v", err)
	}
}

func TestNewWorkerPool_ClosesOnError(t *testing.T) {
	var started atomic.Int32
	first := &fakeConsumer{started: &started}
	_, err := NewWorkerPool(2, func(id int) (Consumer, error) {
		if id == 0 {
			return first, nil
		}
		return nil, errors.New("no brokers")
	}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("Expected error")
	}
	if !first.closed.Load() {
		t.Error("Expected already created consumer to be closed")
	}
}
