package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type fakeDeadLetters struct {
	calls []*Delivery
	err   error
}

func (f *fakeDeadLetters) DeadLetter(_ context.Context, d *Delivery, _ error) error {
	f.calls = append(f.calls, d)
	return f.err
}

func newMessage(offset int64) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:  "topic_v1.events.files",
		Offset: offset,
		Key:    []byte("p-1"),
		Value:  []byte(`{"process_id":"p-1","file":""}`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderCorrelationID), Value: []byte("p-1")},
			{Key: []byte(HeaderContentType), Value: []byte(ContentTypeJSON)},
		},
	}
}

func fastConfig(maxDeliveries int) Config {
	return Config{
		MaxDeliveries:    maxDeliveries,
		RetryInterval:    time.Millisecond,
		RetryMaxInterval: 2 * time.Millisecond,
	}
}

func runClaim(t *testing.T, h *dispatcher, msgs ...*sarama.ConsumerMessage) *fakeSession {
	t.Helper()
	ch := make(chan *sarama.ConsumerMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)

	session := &fakeSession{ctx: context.Background()}
	if err := h.ConsumeClaim(session, &fakeClaim{messages: ch}); err != nil {
		t.Fatalf("ConsumeClaim error: %v", err)
	}
	return session
}

func TestDispatcher_AcksSuccessfulDelivery(t *testing.T) {
	var got *Delivery
	h := newDispatcher(fastConfig(3), func(_ context.Context, d *Delivery) error {
		got = d
		return nil
	}, zaptest.NewLogger(t))

	session := runClaim(t, h, newMessage(7))

	if len(session.marked) != 1 || session.marked[0] != 7 {
		t.Errorf("Expected offset 7 marked once, got %v", session.marked)
	}
	if got.RoutingKey != "events.files" || got.CorrelationID != "p-1" || got.ContentType != ContentTypeJSON {
		t.Errorf("Unexpected delivery %+v", got)
	}
	if got.Attempt != 1 {
		t.Errorf("Expected attempt 1, got %d", got.Attempt)
	}
}

func TestDispatcher_PoisonMessageAckedOnce(t *testing.T) {
	calls := 0
	h := newDispatcher(fastConfig(3), func(context.Context, *Delivery) error {
		calls++
		return Permanent(errors.New("invalid json"))
	}, zaptest.NewLogger(t))

	session := runClaim(t, h, newMessage(1))

	if calls != 1 {
		t.Errorf("Expected handler to run once, ran %d times", calls)
	}
	if len(session.marked) != 1 {
		t.Errorf("Expected message marked once, got %v", session.marked)
	}
}

func TestDispatcher_RedeliversTransientFailure(t *testing.T) {
	calls := 0
	h := newDispatcher(fastConfig(3), func(_ context.Context, d *Delivery) error {
		calls++
		if d.Attempt < 3 {
			return errors.New("catalog unavailable")
		}
		return nil
	}, zaptest.NewLogger(t))

	session := runClaim(t, h, newMessage(1))

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if len(session.marked) != 1 {
		t.Errorf("Expected message marked once, got %v", session.marked)
	}
}

func TestDispatcher_DeadLettersAfterMaxDeliveries(t *testing.T) {
	dlq := &fakeDeadLetters{}
	var hooked *Delivery

	h := newDispatcher(fastConfig(2), func(context.Context, *Delivery) error {
		return errors.New("catalog unavailable")
	}, zaptest.NewLogger(t),
		WithDeadLetters(dlq),
		WithDeadLetterHook(func(_ context.Context, d *Delivery, _ error) { hooked = d }),
	)

	session := runClaim(t, h, newMessage(4))

	if len(dlq.calls) != 1 || dlq.calls[0].Attempt != 2 {
		t.Fatalf("Expected one dead letter after 2 attempts, got %+v", dlq.calls)
	}
	if hooked == nil || hooked.CorrelationID != "p-1" {
		t.Error("Expected dead-letter hook to run")
	}
	if len(session.marked) != 1 {
		t.Errorf("Expected message marked once, got %v", session.marked)
	}
}

func TestDispatcher_DeadLetterFailureLeavesOffsetUncommitted(t *testing.T) {
	dlq := &fakeDeadLetters{err: errors.New("broker down")}
	h := newDispatcher(fastConfig(1), func(context.Context, *Delivery) error {
		return errors.New("catalog unavailable")
	}, zaptest.NewLogger(t), WithDeadLetters(dlq))

	session := runClaim(t, h, newMessage(1), newMessage(2))

	if len(session.marked) != 0 {
		t.Errorf("Expected no marks, got %v", session.marked)
	}
}

func TestDispatcher_StopsOnCancelledSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newDispatcher(fastConfig(1), func(context.Context, *Delivery) error { return nil }, zaptest.NewLogger(t))

	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}
	if err := h.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim error: %v", err)
	}
	if len(session.marked) != 0 {
		t.Errorf("Expected no marks, got %v", session.marked)
	}
}

func TestDispatcher_FallsBackToMessageKey(t *testing.T) {
	var got *Delivery
	h := newDispatcher(fastConfig(1), func(_ context.Context, d *Delivery) error {
		got = d
		return nil
	}, zaptest.NewLogger(t))

	msg := newMessage(1)
	msg.Headers = nil
	runClaim(t, h, msg)

	if got.CorrelationID != "p-1" {
		t.Errorf("Expected correlation id from key, got %q", got.CorrelationID)
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := Permanent(base)

	if !IsPermanent(err) {
		t.Error("Expected permanent error")
	}
	if !errors.Is(err, base) {
		t.Error("Expected Permanent to wrap the cause")
	}
	if IsPermanent(base) {
		t.Error("Expected plain error not to be permanent")
	}
	if Permanent(nil) != nil {
		t.Error("Expected Permanent(nil) to be nil")
	}
}
