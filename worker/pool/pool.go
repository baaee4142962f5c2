package pool

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voicesearch/pkg/broker"
)

// Consumer is one member of the worker's consumer group.
type Consumer interface {
	Consume(ctx context.Context, bindingKeys []string, handler broker.Handler) error
	Close() error
}

// WorkerPool runs a fixed number of group members in one process. Each
// member handles its partitions sequentially.
type WorkerPool struct {
	consumers []Consumer
	logger    *zap.Logger
}

// NewWorkerPool creates size consumers with newConsumer. If any fails, the
// ones already created are closed.
func NewWorkerPool(size int, newConsumer func(id int) (Consumer, error), logger *zap.Logger) (*WorkerPool, error) {
	if size < 1 {
		size = 1
	}

	p := &WorkerPool{logger: logger}
	for i := 0; i < size; i++ {
		c, err := newConsumer(i)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("create consumer %d: %w", i, err)
		}
		p.consumers = append(p.consumers, c)
	}
	return p, nil
}

func (p *WorkerPool) Size() int {
	return len(p.consumers)
}

// Run consumes with every member until ctx is cancelled. The first member to
// fail stops the others.
func (p *WorkerPool) Run(ctx context.Context, bindingKeys []string, handler broker.Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range p.consumers {
		g.Go(func() error {
			p.logger.Info("Worker started", zap.Int("worker", i), zap.Strings("bindings", bindingKeys))
			defer p.logger.Info("Worker stopped", zap.Int("worker", i))

			if err := c.Consume(ctx, bindingKeys, handler); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *WorkerPool) Close() error {
	var errs []error
	for _, c := range p.consumers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
