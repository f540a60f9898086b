// Package kafka publishes domain events to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// defaultFlushTimeout bounds Flush when the context has no deadline
const defaultFlushTimeout = 10 * time.Second

// messageWriter is the part of *kafka.Producer the Producer drives
type messageWriter interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// DeliveryStats counts published events by delivery state
type DeliveryStats struct {
	Queued    uint64
	Delivered uint64
	Failed    uint64
}

// Pending is the number of events queued without a delivery report yet
func (s DeliveryStats) Pending() uint64 {
	if done := s.Delivered + s.Failed; done < s.Queued {
		return s.Queued - done
	}
	return 0
}

// Producer publishes JSON events and tracks their delivery reports
type Producer struct {
	writer messageWriter
	config *Config
	logger *slog.Logger

	queued    atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	// failing is set by a failed report and cleared by the next good one
	failing atomic.Bool
	lastErr atomic.Pointer[string]

	reportsDone chan struct{}
}

// NewProducer creates a new idempotent Kafka producer
func NewProducer(config *Config, logger *slog.Logger) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     config.Brokers,
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("Kafka producer initialized",
		"brokers", config.Brokers,
		"idempotence", config.EnableIdempotence)

	return newProducer(p, config, logger), nil
}

func newProducer(w messageWriter, config *Config, logger *slog.Logger) *Producer {
	p := &Producer{
		writer:      w,
		config:      config,
		logger:      logger,
		reportsDone: make(chan struct{}),
	}
	go p.handleDeliveryReports(w.Events())
	return p
}

// Publish serializes event as JSON and produces it to topic keyed by key.
// Delivery is reported asynchronously.
func (p *Producer) Publish(topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          data,
	}
	if err := p.writer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.queued.Add(1)
	p.logger.Debug("Event queued", "topic", topic, "key", key, "size", len(data))
	return nil
}

func (p *Producer) handleDeliveryReports(events <-chan kafka.Event) {
	defer close(p.reportsDone)

	for e := range events {
		m, ok := e.(*kafka.Message)
		if !ok {
			continue
		}

		topic := ""
		if m.TopicPartition.Topic != nil {
			topic = *m.TopicPartition.Topic
		}
		if err := m.TopicPartition.Error; err != nil {
			p.failed.Add(1)
			p.failing.Store(true)
			msg := err.Error()
			p.lastErr.Store(&msg)
			p.logger.Error("Event delivery failed", "topic", topic, "key", string(m.Key), "error", err)
			continue
		}

		p.delivered.Add(1)
		p.failing.Store(false)
		p.logger.Debug("Event delivered",
			"topic", topic,
			"partition", m.TopicPartition.Partition,
			"offset", m.TopicPartition.Offset)
	}
}

// Stats returns a snapshot of the delivery counters
func (p *Producer) Stats() DeliveryStats {
	return DeliveryStats{
		Queued:    p.queued.Load(),
		Delivered: p.delivered.Load(),
		Failed:    p.failed.Load(),
	}
}

// Health reports "failing" while the latest delivery report was an error.
// Events are optional, so it never reports "down".
func (p *Producer) Health() map[string]string {
	st := p.Stats()
	out := map[string]string{
		"status":    "up",
		"delivered": strconv.FormatUint(st.Delivered, 10),
		"failed":    strconv.FormatUint(st.Failed, 10),
		"pending":   strconv.FormatUint(st.Pending(), 10),
	}
	if p.failing.Load() {
		out["status"] = "failing"
		if last := p.lastErr.Load(); last != nil {
			out["error"] = *last
		}
	}
	return out
}

// Flush waits for outstanding deliveries until ctx's deadline and returns how
// many are still queued
func (p *Producer) Flush(ctx context.Context) int {
	timeout := defaultFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), 0)
	}
	return p.writer.Flush(int(timeout.Milliseconds()))
}

// Close flushes within ctx and closes the producer. Events still queued
// afterwards are lost and reported in the error.
func (p *Producer) Close(ctx context.Context) error {
	remaining := p.Flush(ctx)
	p.writer.Close()

	st := p.Stats()
	p.logger.Info("Kafka producer closed",
		"delivered", st.Delivered,
		"failed", st.Failed,
		"undelivered", remaining)

	if remaining > 0 {
		return fmt.Errorf("%d events undelivered at close", remaining)
	}
	return nil
}
