// Package lifecycle releases long-lived clients on shutdown.
package lifecycle

import (
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
)

type closer struct {
	name string
	fn   func() error
}

// Stack collects close functions in acquisition order and runs them in
// reverse. Close runs at most once; later calls are no-ops.
type Stack struct {
	mu      sync.Mutex
	closers []closer
	closed  bool
	logger  *zap.Logger
}

func NewStack(logger *zap.Logger) *Stack {
	return &Stack{logger: logger}
}

// Push registers fn under name. A nil fn is ignored so callers can push
// clients that were never initialized.
func (s *Stack) Push(name string, fn func() error) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// Close runs every registered function, newest first. Failures are logged
// and never stop the remaining closers.
func (s *Stack) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(); err != nil && !IsAlreadyClosed(err) {
			s.logger.Warn("Failed to close resource",
				zap.String("resource", c.name),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("Resource closed", zap.String("resource", c.name))
	}
}

// ErrAlreadyClosed may be returned by close functions that were already run.
var ErrAlreadyClosed = errors.New("already closed")

// IsAlreadyClosed reports whether err only says the resource was closed before.
func IsAlreadyClosed(err error) bool {
	return errors.Is(err, ErrAlreadyClosed) || errors.Is(err, net.ErrClosed)
}
