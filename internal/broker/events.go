package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"honey-fulfillment/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReservationCompleted publishes ReservationCompleted event
func (ep *EventPublisher) PublishReservationCompleted(ctx context.Context, event *models.ReservationCompletedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReservationFailed publishes ReservationFailed event
func (ep *EventPublisher) PublishReservationFailed(ctx context.Context, event *models.ReservationFailedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PrepPublisher publishes prep commands to the prep-commands topic.
type PrepPublisher struct {
	producer *Producer
}

// NewPrepPublisher creates a new prep command publisher
func NewPrepPublisher(producer *Producer) *PrepPublisher {
	return &PrepPublisher{producer: producer}
}

// PublishPrepCommand publishes PrepCommandIssued event
func (pp *PrepPublisher) PublishPrepCommand(ctx context.Context, event *models.PrepCommandIssuedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderNumber)
	return pp.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onPrepCommand func(context.Context, *models.PrepCommandIssuedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPrepCommand registers a handler for PrepCommandIssued events
func (eh *EventHandler) OnPrepCommand(handler func(context.Context, *models.PrepCommandIssuedEvent) error) {
	eh.onPrepCommand = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePrepCommandIssued:
		if eh.onPrepCommand != nil {
			var event models.PrepCommandIssuedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PrepCommandIssued event: %w", err)
			}
			return eh.onPrepCommand(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
