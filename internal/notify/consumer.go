package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tweeter/internal/config"
	"tweeter/internal/follow"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers       string
	Topic         string
	DLQTopic      string
	ConsumerGroup string
}

// LoadConsumerConfig reads KAFKA_* variables. KAFKA_BROKERS is required.
func LoadConsumerConfig() (*ConsumerConfig, error) {
	brokers := config.GetEnvOrDefault("KAFKA_BROKERS", "")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	topic := config.GetEnvOrDefault("KAFKA_TOPIC_FOLLOW_EVENTS", "follow-events")
	return &ConsumerConfig{
		Brokers:       brokers,
		Topic:         topic,
		DLQTopic:      config.GetEnvOrDefault("KAFKA_TOPIC_FOLLOW_DLQ", topic+"-dlq"),
		ConsumerGroup: config.GetEnvOrDefault("KAFKA_CONSUMER_GROUP", "notify-service-group"),
	}, nil
}

// messageSource is the part of *kafka.Consumer the loop uses
type messageSource interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
	Close() error
}

// dlqSink is the part of *kafka.Producer used for dead letters
type dlqSink interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Consumer feeds follow events from Kafka into a Processor
type Consumer struct {
	consumer     messageSource
	dlqProducer  dlqSink
	processor    *Processor
	config       *ConsumerConfig
	retryBackoff time.Duration
	logger       *slog.Logger
}

// NewConsumer creates a consumer with manual offset commits
func NewConsumer(cfg *ConsumerConfig, processor *Processor, logger *slog.Logger) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	dlq, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": cfg.Brokers})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	logger.Info("Kafka consumer initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"group", cfg.ConsumerGroup)

	return newConsumer(c, dlq, processor, cfg, logger), nil
}

func newConsumer(src messageSource, dlq dlqSink, processor *Processor, cfg *ConsumerConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		consumer:     src,
		dlqProducer:  dlq,
		processor:    processor,
		config:       cfg,
		retryBackoff: time.Second,
		logger:       logger,
	}
}

// Start consumes until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.config.Topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	c.logger.Info("Starting to consume follow events", "topic", c.config.Topic)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer shutting down")
			return nil
		default:
		}

		msg, err := c.consumer.ReadMessage(time.Second)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			c.logger.Error("Error reading message", "error", err)
			continue
		}

		if !c.handle(ctx, msg) {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.retryBackoff):
		}
	}
}

// handle processes msg and reports whether it was rewound for another read
func (c *Consumer) handle(ctx context.Context, msg *kafka.Message) bool {
	outcome, ev, err := c.processor.Handle(ctx, msg.Value)

	switch outcome {
	case Retry:
		c.logger.Error("Follow event not claimed, rewinding",
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err)
		if err := c.consumer.Seek(msg.TopicPartition, 0); err != nil {
			c.logger.Error("Failed to seek back", "offset", msg.TopicPartition.Offset, "error", err)
		}
		return true
	case Failed:
		c.sendToDLQ(msg.Value, ev, err)
	}

	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Error("Failed to commit offset",
			"topic", *msg.TopicPartition.Topic,
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err)
	}
	return false
}

// dlqEnvelope wraps a failed event for the dead letter topic
type dlqEnvelope struct {
	OriginalEvent *follow.FollowEvent `json:"original_event,omitempty"`
	Raw           string              `json:"raw,omitempty"`
	Error         string              `json:"error"`
	FailedAt      time.Time           `json:"failed_at"`
	ConsumerGroup string              `json:"consumer_group"`
}

func (c *Consumer) sendToDLQ(raw []byte, ev *follow.FollowEvent, cause error) {
	env := dlqEnvelope{
		OriginalEvent: ev,
		FailedAt:      time.Now().UTC(),
		ConsumerGroup: c.config.ConsumerGroup,
	}
	if ev == nil {
		env.Raw = string(raw)
	}
	if cause != nil {
		env.Error = cause.Error()
	}

	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("Failed to marshal DLQ event", "error", err)
		return
	}

	err = c.dlqProducer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &c.config.DLQTopic, Partition: kafka.PartitionAny},
		Value:          data,
	}, nil)
	if err != nil {
		c.logger.Error("Failed to send to DLQ", "error", err)
		return
	}

	c.logger.Warn("Follow event sent to DLQ", "dlq_topic", c.config.DLQTopic)
}

// Close flushes the DLQ producer and closes the consumer
func (c *Consumer) Close() {
	c.dlqProducer.Flush(5000)
	c.dlqProducer.Close()
	if err := c.consumer.Close(); err != nil {
		c.logger.Warn("Failed to close consumer", "error", err)
	}
	c.logger.Info("Kafka consumer closed")
}
