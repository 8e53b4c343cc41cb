package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"carrental/internal/logger"
	"carrental/internal/models"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rabbitmq/amqp091-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Routing keys on the rentals topic exchange.
const (
	RentalCreated   = "rental.created"
	RentalActivated = "rental.activated"
	RentalCompleted = "rental.completed"
	RentalCancelled = "rental.cancelled"
)

// RentalEvent is the message body published on every rental transition.
type RentalEvent struct {
	ID         uuid.UUID           `json:"id"`
	Type       string              `json:"type"`
	RentalID   uuid.UUID           `json:"rentalId"`
	CarID      uuid.UUID           `json:"carId"`
	UserID     uuid.UUID           `json:"userId"`
	Status     models.RentalStatus `json:"status"`
	StartDate  models.Date         `json:"startDate"`
	EndDate    models.Date         `json:"endDate"`
	TotalCost  float64             `json:"totalCost"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// NewRentalEvent snapshots rental for publishing under routing key eventType.
func NewRentalEvent(eventType string, rental *models.Rental) RentalEvent {
	return RentalEvent{
		ID:         uuid.New(),
		Type:       eventType,
		RentalID:   rental.ID,
		CarID:      rental.CarID,
		UserID:     rental.UserID,
		Status:     rental.Status,
		StartDate:  rental.StartDate,
		EndDate:    rental.EndDate,
		TotalCost:  rental.TotalCost,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	PublishRentalEvent(ctx context.Context, event RentalEvent) error
	Close() error
}

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type amqpPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	exchange string
	log      *slog.Logger
}

// NewAMQPPublisher dials the broker and declares the durable topic exchange.
func NewAMQPPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp091.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	l := logger.WithComponent("events")
	l.Info("connected to RabbitMQ", "exchange", exchange)

	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, log: l}, nil
}

func newPublisherWithChannel(ch channel, exchange string) *amqpPublisher {
	return &amqpPublisher{ch: ch, exchange: exchange, log: logger.WithComponent("events")}
}

func (p *amqpPublisher) PublishRentalEvent(ctx context.Context, event RentalEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.log.Debug("rental event published", "type", event.Type, "rental_id", event.RentalID)
	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher discards events. Used when no broker is configured.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) PublishRentalEvent(context.Context, RentalEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
