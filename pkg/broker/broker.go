// Package broker publishes and consumes JSON work items over Kafka, using
// topic-exchange conventions: an exchange name plus dotted routing keys.
package broker

import (
	"errors"
	"time"

	"github.com/IBM/sarama"
)

const (
	HeaderCorrelationID = "correlation_id"
	HeaderContentType   = "content_type"
	HeaderDeliveryCount = "x-delivery-count"
	HeaderDeathReason   = "x-death-reason"
	HeaderOriginalTopic = "x-original-topic"

	ContentTypeJSON = "application/json"

	DefaultExchange       = "topic_v1"
	DefaultPublishTimeout = 10 * time.Second
	DefaultMaxDeliveries  = 3
)

var (
	ErrPublishTimeout = errors.New("publish timed out")
	ErrNoBrokers      = errors.New("no kafka brokers configured")
)

type Config struct {
	Brokers           []string      `yaml:"brokers"`
	Exchange          string        `yaml:"exchange"`
	ClientID          string        `yaml:"client_id"`
	PublishTimeout    time.Duration `yaml:"publish_timeout"`
	Partitions        int32         `yaml:"partitions"`
	ReplicationFactor int16         `yaml:"replication_factor"`
	MaxDeliveries     int           `yaml:"max_deliveries"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	RetryMaxInterval  time.Duration `yaml:"retry_max_interval"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	if c.Partitions <= 0 {
		c.Partitions = 1
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = 1
	}
	if c.MaxDeliveries <= 0 {
		c.MaxDeliveries = DefaultMaxDeliveries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = 10 * time.Second
	}
}

func (c Config) saramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	if c.ClientID != "" {
		sc.ClientID = c.ClientID
	}

	sc.Metadata.Retry.Max = 5
	sc.Metadata.Retry.Backoff = 500 * time.Millisecond

	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true
	sc.Producer.Timeout = c.PublishTimeout

	sc.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	return sc
}

// Delivery is one consumed message.
type Delivery struct {
	RoutingKey    string
	CorrelationID string
	ContentType   string
	Body          []byte
	Attempt       int
	Topic         string
	Partition     int32
	Offset        int64
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth redelivering. The consumer acknowledges
// the message and moves on.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
