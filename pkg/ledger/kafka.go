// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/metrics"
)

// KafkaConfig holds the writer configuration of the Kafka ledger.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// WriteTimeout bounds a single synchronous write. Defaults to 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each outcome as one JSON message keyed by recipient, so all
// outcomes for a recipient land on the same partition in order.
type Kafka struct {
	brokers []string
	topic   string
	writer  messageWriter
	// createTopic is replaced in tests.
	createTopic func(ctx context.Context) error

	mu          sync.Mutex
	closed      bool
	initialized bool
}

// NewKafka builds a synchronous writer requiring acks from all replicas.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = config.DefaultKafkaTopic
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
	k := &Kafka{
		brokers: cfg.Brokers,
		topic:   cfg.Topic,
		writer:  writer,
	}
	k.createTopic = k.ensureTopic
	return k, nil
}

// Init creates the topic through the cluster controller. An existing topic is not an error.
func (k *Kafka) Init(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.initialized {
		return nil
	}
	if err := k.createTopic(ctx); err != nil {
		return err
	}
	k.initialized = true
	return nil
}

func (k *Kafka) ensureTopic(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial Kafka broker %s: %w", k.brokers[0], err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to find Kafka controller: %w", err)
	}
	ctrl, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial Kafka controller: %w", err)
	}
	defer func() { _ = ctrl.Close() }()

	err = ctrl.CreateTopics(kafka.TopicConfig{Topic: k.topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create Kafka topic %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Record(ctx context.Context, o Outcome) error {
	if err := o.Validate(); err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverKafka, "error").Inc()
		return err
	}
	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverKafka, "error").Inc()
		return ErrClosed
	}

	value, err := json.Marshal(o)
	if err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverKafka, "error").Inc()
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(o.Recipient),
		Value: value,
		Headers: []kafka.Header{
			{Key: "outcome-id", Value: []byte(o.ID.String())},
			{Key: "status", Value: []byte(o.Status)},
			{Key: "timestamp", Value: []byte(o.CreatedAt.Format(time.RFC3339))},
		},
		Time: o.CreatedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverKafka, "error").Inc()
		return fmt.Errorf("failed to write to Kafka (%s): %w", classifyKafkaError(err), err)
	}
	metrics.LedgerWrites.WithLabelValues(config.LedgerDriverKafka, "success").Inc()
	return nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}

func (k *Kafka) Driver() string {
	return config.LedgerDriverKafka
}

// classifyKafkaError categorizes Kafka errors for error messages.
func classifyKafkaError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "SASL") || strings.Contains(errStr, "authentication"):
		return "auth"
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return "network"
	case strings.Contains(errStr, "broker") || strings.Contains(errStr, "leader"):
		return "broker"
	case strings.Contains(errStr, "topic"):
		return "topic"
	default:
		return "other"
	}
}
