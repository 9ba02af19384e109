package service

import (
	"context"
	"fmt"
	"time"

	"honey-fulfillment/internal/broker"
	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/redisclient"
	"honey-fulfillment/internal/store"
	"honey-fulfillment/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order intake and drives the reservation.
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	prepPublisher  *broker.PrepPublisher
	orchestrator   *ReservationOrchestrator
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	prepPublisher *broker.PrepPublisher,
	orchestrator *ReservationOrchestrator,
	idempotencyTTL time.Duration,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		prepPublisher:  prepPublisher,
		orchestrator:   orchestrator,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	OrderNumber    int64          `json:"order_number" binding:"required"`
	Flavor         string         `json:"flavor" binding:"required"`
	JarQuantities  map[string]int `json:"jar_quantities" binding:"required"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// PlaceOrderResponse represents the outcome of placing an order
type PlaceOrderResponse struct {
	OrderNumber  int64                `json:"order_number"`
	Status       string               `json:"status"`
	Reason       string               `json:"reason,omitempty"`
	DeliveredKg  string               `json:"delivered_kg"`
	ApprovedJars map[string]int       `json:"approved_jars,omitempty"`
	PrepCommands []models.PrepCommand `json:"prep_commands,omitempty"`
}

// ErrInvalidOrder marks request validation failures; the API layer maps it
// to a 400.
type ErrInvalidOrder struct {
	Detail string
}

func (e *ErrInvalidOrder) Error() string {
	return "invalid order: " + e.Detail
}

// PlaceOrder validates, persists and reserves one order. A reservation that
// stops short of full delivery is still a successful call; the response
// status and reason describe the outcome.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	order, err := s.validateRequest(req)
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	if resp, ok := s.checkDuplicate(ctx, req.IdempotencyKey); ok {
		return resp, nil
	}

	if _, err := s.store.CreateOrder(ctx, order, req.IdempotencyKey); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("flavor", string(order.Flavor)))

	s.publishOrderPlaced(ctx, order)

	result := s.orchestrator.ReserveFor(ctx, order)

	status := models.OrderStatusFailed
	switch {
	case result.Success:
		status = models.OrderStatusReserved
	case result.Partial():
		status = models.OrderStatusPartiallyReserved
	}

	if err := s.store.UpdateOrderStatus(ctx, order.OrderNumber, status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := s.redis.SetIdempotencyKey(ctx, req.IdempotencyKey, order.OrderNumber, s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
	}

	if result.Success {
		s.publishReservationCompleted(ctx, order, result)
		s.dispatchPrepCommands(ctx, order.OrderNumber, result.PrepCommands)
	} else {
		s.publishReservationFailed(ctx, order, result)
	}

	return &PlaceOrderResponse{
		OrderNumber:  order.OrderNumber,
		Status:       status,
		Reason:       result.Reason,
		DeliveredKg:  result.DeliveredKg.String(),
		ApprovedJars: jarCountsByName(result.ApprovedJars),
		PrepCommands: result.PrepCommands,
	}, nil
}

// validateRequest checks flavor and jar sizes and builds the domain order.
func (s *OrderService) validateRequest(req *PlaceOrderRequest) (models.Order, error) {
	flavor := models.Flavor(req.Flavor)
	if !flavor.Valid() {
		return models.Order{}, &ErrInvalidOrder{Detail: fmt.Sprintf("unknown flavor %q", req.Flavor)}
	}

	quantities := make(map[models.JarSize]int, len(req.JarQuantities))
	for name, qty := range req.JarQuantities {
		size := models.JarSize(name)
		if !size.Valid() {
			return models.Order{}, &ErrInvalidOrder{Detail: fmt.Sprintf("unknown jar size %q", name)}
		}
		if qty < 0 {
			return models.Order{}, &ErrInvalidOrder{Detail: fmt.Sprintf("negative quantity for jar size %q", name)}
		}
		quantities[size] = qty
	}

	return models.Order{
		OrderNumber:   req.OrderNumber,
		Flavor:        flavor,
		JarQuantities: quantities,
	}, nil
}

// checkDuplicate consults the idempotency cache first, then the database.
func (s *OrderService) checkDuplicate(ctx context.Context, key string) (*PlaceOrderResponse, bool) {
	cached, err := s.redis.CheckIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency cache lookup failed", zap.Error(err))
	}

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		return nil, false
	}
	if existing == nil {
		if cached {
			s.logger.Warn("Idempotency key cached but order missing",
				zap.String("idempotency_key", key))
		}
		return nil, false
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_number", existing.OrderNumber))
	return &PlaceOrderResponse{
		OrderNumber: existing.OrderNumber,
		Status:      existing.Status,
		DeliveredKg: "0",
	}, true
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order models.Order) {
	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderNumber:   order.OrderNumber,
		Flavor:        order.Flavor,
		JarQuantities: order.JarQuantities,
		RequestedKg:   order.TotalKg().String(),
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishReservationCompleted(ctx context.Context, order models.Order, result ReservationResult) {
	event := &models.ReservationCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationCompleted,
			Timestamp: time.Now(),
		},
		OrderNumber:  order.OrderNumber,
		Flavor:       order.Flavor,
		DeliveredKg:  result.DeliveredKg.String(),
		ApprovedJars: result.ApprovedJars,
	}
	if err := s.eventPublisher.PublishReservationCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationCompleted event", zap.Error(err))
	}
}

func (s *OrderService) publishReservationFailed(ctx context.Context, order models.Order, result ReservationResult) {
	event := &models.ReservationFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationFailed,
			Timestamp: time.Now(),
		},
		OrderNumber: order.OrderNumber,
		Flavor:      order.Flavor,
		Reason:      result.Reason,
		DeliveredKg: result.DeliveredKg.String(),
	}
	if err := s.eventPublisher.PublishReservationFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationFailed event", zap.Error(err))
	}
}

// dispatchPrepCommands emits one event per command. Publish failures are
// logged, not retried; the committed reservation stands either way.
func (s *OrderService) dispatchPrepCommands(ctx context.Context, orderNumber int64, commands []models.PrepCommand) {
	for _, cmd := range commands {
		event := &models.PrepCommandIssuedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePrepCommandIssued,
				Timestamp: time.Now(),
			},
			OrderNumber: orderNumber,
			Command:     cmd,
		}
		if err := s.prepPublisher.PublishPrepCommand(ctx, event); err != nil {
			s.logger.Error("Failed to publish prep command",
				zap.Int64("order_number", orderNumber),
				zap.String("resource", string(cmd.Resource)),
				zap.Error(err))
			continue
		}
		util.PrepCommandsIssuedTotal.Inc()
	}
}

// ListOrdersByFlavor returns the orders placed for one flavor, newest
// first.
func (s *OrderService) ListOrdersByFlavor(ctx context.Context, flavor string) ([]models.OrderRecord, error) {
	f := models.Flavor(flavor)
	if !f.Valid() {
		return nil, &ErrInvalidOrder{Detail: fmt.Sprintf("unknown flavor %q", flavor)}
	}
	return s.store.GetOrdersByFlavor(ctx, f)
}

// GetOrder retrieves an order by number.
func (s *OrderService) GetOrder(ctx context.Context, orderNumber int64) (*models.OrderRecord, map[models.JarSize]int, error) {
	record, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}

	quantities, err := store.DecodeJarQuantities(record)
	if err != nil {
		return nil, nil, err
	}

	return record, quantities, nil
}

func jarCountsByName(counts map[models.JarSize]int) map[string]int {
	if counts == nil {
		return nil
	}
	out := make(map[string]int, len(counts))
	for size, qty := range counts {
		out[string(size)] = qty
	}
	return out
}
