package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/backstage/bookings/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types published by the service
const (
	EventBookingCreated        = "booking.created"
	EventBookingUpdated        = "booking.updated"
	EventBookingDeleted        = "booking.deleted"
	EventBookingTransitioned   = "booking.transitioned"
	EventBookingCompleted      = "booking.completed"
	EventInvoiceOverdue        = "booking.invoice_overdue"
	EventVerificationRequested = "user.verification_email_requested"
)

// Event is a domain event envelope
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	AgencyID   *uuid.UUID  `json:"agency_id,omitempty"`
	EntityID   uuid.UUID   `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// NewEvent stamps a new event
func NewEvent(eventType string, agencyID *uuid.UUID, entityID uuid.UUID, data interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		AgencyID:   agencyID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// serviceBusPublisher sends events to an Azure Service Bus topic
type serviceBusPublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
	source string
}

// logPublisher only logs events, for local development
type logPublisher struct {
	log    logrus.FieldLogger
	source string
}

// NewPublisher creates a Service Bus publisher, or a logging one when no
// connection string is configured
func NewPublisher(cfg config.ServiceBusConfig, source string, log logrus.FieldLogger) (Publisher, error) {
	if cfg.ConnectionString == "" {
		return &logPublisher{log: log, source: source}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.TopicName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusPublisher{client: client, sender: sender, source: source}, nil
}

// sessionID keeps the events of one agency in order
func sessionID(event Event) string {
	if event.AgencyID != nil {
		return event.AgencyID.String()
	}
	return event.EntityID.String()
}

func (p *serviceBusPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	session := sessionID(event)
	messageID := event.ID.String()
	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		MessageID:   &messageID,
		ContentType: &contentType,
		Subject:     &event.Type,
		SessionID:   &session,
		ApplicationProperties: map[string]interface{}{
			"source":     p.source,
			"event_type": event.Type,
			"time":       event.OccurredAt.Format(time.RFC3339),
		},
	}

	return p.sender.SendMessage(ctx, msg, nil)
}

func (p *serviceBusPublisher) Close() error {
	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

func (p *logPublisher) Publish(_ context.Context, event Event) error {
	p.log.WithFields(logrus.Fields{
		"source":     p.source,
		"event_type": event.Type,
		"event_id":   event.ID,
		"entity_id":  event.EntityID,
		"session_id": sessionID(event),
	}).Info("event published (no service bus configured)")
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
