package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"voicesearch/pkg/metrics"
)

// Handler processes one delivery. A nil return acknowledges it, an error
// wrapped with Permanent acknowledges it as poison, any other error asks for
// redelivery.
type Handler func(ctx context.Context, d *Delivery) error

// DeadLetterPublisher receives deliveries that exhausted their retries.
type DeadLetterPublisher interface {
	DeadLetter(ctx context.Context, d *Delivery, cause error) error
}

type ConsumerOption func(*dispatcher)

func WithDeadLetters(p DeadLetterPublisher) ConsumerOption {
	return func(d *dispatcher) { d.deadLetters = p }
}

// WithDeadLetterHook runs fn after a delivery was dead-lettered.
func WithDeadLetterHook(fn func(ctx context.Context, d *Delivery, cause error)) ConsumerOption {
	return func(d *dispatcher) { d.onDeadLetter = fn }
}

// Consumer is a member of the consumer group named after its queue. Offsets
// are committed per group, so the queue outlives individual consumers.
type Consumer struct {
	client      sarama.Client
	group       sarama.ConsumerGroup
	admin       sarama.ClusterAdmin
	cfg         Config
	queue       string
	logger      *zap.Logger
	opts        []ConsumerOption
	refreshWait time.Duration
}

func NewConsumer(cfg Config, queue string, logger *zap.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg.ApplyDefaults()

	client, err := sarama.NewClient(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	group, err := sarama.NewConsumerGroupFromClient(queue, client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create consumer group %s: %w", queue, err)
	}

	admin, err := sarama.NewClusterAdminFromClient(client)
	if err != nil {
		group.Close()
		client.Close()
		return nil, fmt.Errorf("create cluster admin: %w", err)
	}

	return &Consumer{
		client:      client,
		group:       group,
		admin:       admin,
		cfg:         cfg,
		queue:       queue,
		logger:      logger.With(zap.String("queue", queue)),
		opts:        opts,
		refreshWait: 5 * time.Second,
	}, nil
}

// Declare creates durable topics for the literal routing keys.
func (c *Consumer) Declare(routingKeys ...string) error {
	for _, key := range routingKeys {
		if IsWildcard(key) {
			continue
		}
		topic := TopicName(c.cfg.Exchange, key)
		err := c.admin.CreateTopic(topic, &sarama.TopicDetail{
			NumPartitions:     c.cfg.Partitions,
			ReplicationFactor: c.cfg.ReplicationFactor,
		}, false)
		if err != nil && !isTopicExists(err) {
			return fmt.Errorf("declare %s: %w", topic, err)
		}
	}
	return nil
}

func isTopicExists(err error) bool {
	var topicErr *sarama.TopicError
	if errors.As(err, &topicErr) {
		return topicErr.Err == sarama.ErrTopicAlreadyExists
	}
	return errors.Is(err, sarama.ErrTopicAlreadyExists)
}

// Consume declares the literal binding keys and feeds every matching message
// to handler until ctx is cancelled or the consumer is closed. Wildcard
// bindings are re-resolved after every rebalance.
func (c *Consumer) Consume(ctx context.Context, bindingKeys []string, handler Handler) error {
	if err := c.Declare(bindingKeys...); err != nil {
		return err
	}

	h := newDispatcher(c.cfg, handler, c.logger, c.opts...)

	for {
		topics, err := c.resolve(bindingKeys)
		if err != nil {
			return err
		}

		if len(topics) == 0 {
			c.logger.Debug("No topics match bindings yet", zap.Strings("bindings", bindingKeys))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.refreshWait):
				continue
			}
		}

		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume %v: %w", topics, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) resolve(bindingKeys []string) ([]string, error) {
	var existing []string
	for _, key := range bindingKeys {
		if IsWildcard(key) {
			if err := c.client.RefreshMetadata(); err != nil {
				return nil, fmt.Errorf("refresh metadata: %w", err)
			}
			topics, err := c.client.Topics()
			if err != nil {
				return nil, fmt.Errorf("list topics: %w", err)
			}
			existing = topics
			break
		}
	}
	return ResolveTopics(c.cfg.Exchange, bindingKeys, existing), nil
}

// Close leaves the group and releases the client. Already-closed parts are
// skipped.
func (c *Consumer) Close() error {
	var errs []error
	if err := c.group.Close(); err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
		errs = append(errs, err)
	}
	// closing the admin also closes the client it was built from
	if err := c.admin.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
		errs = append(errs, err)
	}
	if !c.client.Closed() {
		if err := c.client.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatcher is the sarama group handler. Messages of one claim are handled
// sequentially and each is marked exactly once.
type dispatcher struct {
	exchange      string
	handler       Handler
	logger        *zap.Logger
	maxDeliveries int
	newBackOff    func() backoff.BackOff
	deadLetters   DeadLetterPublisher
	onDeadLetter  func(ctx context.Context, d *Delivery, cause error)
}

func newDispatcher(cfg Config, handler Handler, logger *zap.Logger, opts ...ConsumerOption) *dispatcher {
	cfg.ApplyDefaults()
	d := &dispatcher{
		exchange:      cfg.Exchange,
		handler:       handler,
		logger:        logger,
		maxDeliveries: cfg.MaxDeliveries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.RetryInterval
			b.MaxInterval = cfg.RetryMaxInterval
			b.Reset()
			return b
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (h *dispatcher) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *dispatcher) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *dispatcher) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if !h.deliver(session.Context(), msg) {
				// leave the offset uncommitted; the next session redelivers it
				return nil
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *dispatcher) toDelivery(msg *sarama.ConsumerMessage) *Delivery {
	d := &Delivery{
		Body:      msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
	d.RoutingKey, _ = RoutingKey(h.exchange, msg.Topic)

	for _, rh := range msg.Headers {
		if rh == nil {
			continue
		}
		switch string(rh.Key) {
		case HeaderCorrelationID:
			d.CorrelationID = string(rh.Value)
		case HeaderContentType:
			d.ContentType = string(rh.Value)
		}
	}
	if d.CorrelationID == "" {
		d.CorrelationID = string(msg.Key)
	}
	return d
}

// deliver runs the handler with redelivery and reports whether the message
// may be acknowledged.
func (h *dispatcher) deliver(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	d := h.toDelivery(msg)
	log := h.logger.With(
		zap.String("topic", d.Topic),
		zap.Int32("partition", d.Partition),
		zap.Int64("offset", d.Offset),
		zap.String("correlation_id", d.CorrelationID),
	)

	b := h.newBackOff()
	var lastErr error

	for attempt := 1; attempt <= h.maxDeliveries; attempt++ {
		d.Attempt = attempt

		err := h.handler(ctx, d)
		if err == nil {
			metrics.BrokerDeliveriesTotal.WithLabelValues(d.Topic, "acked").Inc()
			return true
		}
		if IsPermanent(err) {
			log.Error("Dropping poison message", zap.Error(err))
			metrics.BrokerDeliveriesTotal.WithLabelValues(d.Topic, "poison").Inc()
			return true
		}

		lastErr = err
		if attempt == h.maxDeliveries {
			break
		}

		wait := b.NextBackOff()
		log.Warn("Delivery failed, redelivering",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
		metrics.BrokerDeliveriesTotal.WithLabelValues(d.Topic, "redelivered").Inc()

		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}

	return h.deadLetter(ctx, d, lastErr, log)
}

func (h *dispatcher) deadLetter(ctx context.Context, d *Delivery, cause error, log *zap.Logger) bool {
	if h.deadLetters != nil {
		if err := h.deadLetters.DeadLetter(ctx, d, cause); err != nil {
			log.Error("Failed to dead-letter message", zap.Error(err), zap.NamedError("cause", cause))
			return false
		}
	}

	log.Error("Message dead-lettered",
		zap.Int("attempts", d.Attempt),
		zap.Error(cause),
	)
	metrics.BrokerDeliveriesTotal.WithLabelValues(d.Topic, "dead_lettered").Inc()

	if h.onDeadLetter != nil {
		h.onDeadLetter(ctx, d, cause)
	}
	return true
}
