package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// BetEvent is the wire schema for an inbound bet, keyed by jackpot_id on the
// topic so a single partition delivers per-jackpot events in FIFO order.
type BetEvent struct {
	BetID     int64           `json:"bet_id"`
	UserID    int64           `json:"user_id"`
	JackpotID int64           `json:"jackpot_id"`
	BetAmount decimal.Decimal `json:"bet_amount"`
}

// BetHandler processes one ingested BetEvent. Returning an error causes the
// consumer to log it and still commit the offset — recovery from a bad
// contribution is the contribution service's idempotency, not message
// redelivery, per the at-least-once bus contract.
type BetHandler func(ctx context.Context, event BetEvent) error

// Consumer wraps a Kafka reader consuming the bet-event topic.
type Consumer struct {
	reader  *kafka.Reader
	handler BetHandler
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new bet-event consumer.
func NewConsumer(config ConsumerConfig, handler BetHandler) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  config.Logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins consuming messages in the background.
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("stopping kafka consumer")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("error closing kafka reader")
		return err
	}

	c.logger.Info().Msg("kafka consumer stopped")
	return nil
}

func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("error fetching message from kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("error handling bet event")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("error committing message")
			}
		}
	}
}

func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event BetEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	return c.handler(c.ctx, event)
}
