package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// Publisher sends JSON messages to the exchange.
type Publisher interface {
	Send(ctx context.Context, routingKey string, data any, correlationID string) error
	Close() error
}

type Producer struct {
	producer  sarama.SyncProducer
	exchange  string
	timeout   time.Duration
	closeOnce sync.Once
	closeErr  error
}

var _ Publisher = (*Producer)(nil)

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg.ApplyDefaults()

	p, err := sarama.NewSyncProducer(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return NewProducerFromSync(p, cfg), nil
}

// NewProducerFromSync wraps an existing sarama producer.
func NewProducerFromSync(p sarama.SyncProducer, cfg Config) *Producer {
	cfg.ApplyDefaults()
	return &Producer{
		producer: p,
		exchange: cfg.Exchange,
		timeout:  cfg.PublishTimeout,
	}
}

// Send publishes data as JSON under routingKey. The message is keyed by
// correlationID and acknowledged by all in-sync replicas before Send
// returns. Send gives up with ErrPublishTimeout once the publish timeout
// elapses.
func (p *Producer) Send(ctx context.Context, routingKey string, data any, correlationID string) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicName(p.exchange, routingKey),
		Key:   sarama.StringEncoder(correlationID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderCorrelationID), Value: []byte(correlationID)},
			{Key: []byte(HeaderContentType), Value: []byte(ContentTypeJSON)},
		},
	}

	return p.publish(ctx, msg)
}

// DeadLetter republishes a delivery that exhausted its retries to the
// exchange's dead-letter topic for its routing key.
func (p *Producer) DeadLetter(ctx context.Context, d *Delivery, cause error) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicName(p.exchange, DeadLetterPrefix+d.RoutingKey),
		Key:   sarama.StringEncoder(d.CorrelationID),
		Value: sarama.ByteEncoder(d.Body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderCorrelationID), Value: []byte(d.CorrelationID)},
			{Key: []byte(HeaderContentType), Value: []byte(d.ContentType)},
			{Key: []byte(HeaderDeliveryCount), Value: []byte(strconv.Itoa(d.Attempt))},
			{Key: []byte(HeaderDeathReason), Value: []byte(reason)},
			{Key: []byte(HeaderOriginalTopic), Value: []byte(d.Topic)},
		},
	}

	return p.publish(ctx, msg)
}

func (p *Producer) publish(ctx context.Context, msg *sarama.ProducerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := p.producer.SendMessage(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish to %s: %w", msg.Topic, err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("publish to %s: %w", msg.Topic, ErrPublishTimeout)
		}
		return fmt.Errorf("publish to %s: %w", msg.Topic, ctx.Err())
	}
}

// Close flushes and closes the producer. Repeated calls return the first result.
func (p *Producer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.producer.Close()
	})
	return p.closeErr
}
