package worker

import (
	"context"
	"log"

	"honey-fulfillment/internal/broker"
	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/util"

	"go.uber.org/zap"
)

// PrepWorker consumes prep-command events and hands them to fulfillment.
// The reservation is already committed when a command arrives; the worker
// only acknowledges the pull work downstream.
type PrepWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewPrepWorker creates a new prep worker
func NewPrepWorker(consumer *broker.Consumer) *PrepWorker {
	w := &PrepWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPrepCommand(w.handlePrepCommand)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *PrepWorker) Start(ctx context.Context) error {
	log.Println("Starting prep worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PrepWorker) Stop() error {
	log.Println("Stopping prep worker...")
	return w.consumer.Close()
}

func (w *PrepWorker) handlePrepCommand(ctx context.Context, event *models.PrepCommandIssuedEvent) error {
	cmd := event.Command

	w.logger.Info("Prep command handled",
		zap.Int64("order_number", event.OrderNumber),
		zap.String("warehouse", cmd.WarehouseKey),
		zap.String("resource", string(cmd.Resource)),
		zap.String("jar_size", string(cmd.JarSize)),
		zap.Int("quantity", cmd.Quantity))

	util.PrepCommandsHandledTotal.WithLabelValues(string(cmd.Resource)).Inc()
	return nil
}
