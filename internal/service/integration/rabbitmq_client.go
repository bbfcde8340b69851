package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

// EventPublisher announces domain events to interested consumers: the outline
// extraction worker listens for uploaded outlines, notification consumers for
// semester deletions.
type EventPublisher interface {
	PublishOutlineUploaded(ctx context.Context, event *models.OutlineUploadedEvent) error
	PublishSemesterDeleted(ctx context.Context, event *models.SemesterDeletedEvent) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   zerolog.Logger
}

const (
	routingKeyOutlineUploaded = "outline.uploaded"
	routingKeySemesterDeleted = "semester.deleted"
)

func NewRabbitMQPublisher(url, exchange string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (c *rabbitMQPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (c *rabbitMQPublisher) PublishOutlineUploaded(ctx context.Context, event *models.OutlineUploadedEvent) error {
	if err := c.publish(ctx, routingKeyOutlineUploaded, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("outline_id", event.OutlineID).
		Str("semester_id", event.SemesterID).
		Msg("Outline uploaded event published")

	return nil
}

func (c *rabbitMQPublisher) PublishSemesterDeleted(ctx context.Context, event *models.SemesterDeletedEvent) error {
	if err := c.publish(ctx, routingKeySemesterDeleted, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("semester_id", event.SemesterID).
		Int("assessments_purged", event.AssessmentsPurged).
		Msg("Semester deleted event published")

	return nil
}

func (c *rabbitMQPublisher) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
