package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"honey-fulfillment/internal/models"
)

// CreateOrder persists a new order record. Jar quantities are stored as
// jsonb.
func (s *Store) CreateOrder(ctx context.Context, order models.Order, idempotencyKey string) (*models.OrderRecord, error) {
	quantities, err := json.Marshal(order.JarQuantities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jar quantities: %w", err)
	}

	record := models.OrderRecord{
		OrderNumber:    order.OrderNumber,
		Flavor:         string(order.Flavor),
		JarQuantities:  quantities,
		Status:         models.OrderStatusCreated,
		IdempotencyKey: idempotencyKey,
	}

	query := `
		INSERT INTO orders (order_number, flavor, jar_quantities, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		record.OrderNumber, record.Flavor, record.JarQuantities, record.Status, record.IdempotencyKey)
	if err := row.Scan(&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &record, nil
}

// GetOrderByNumber retrieves an order record by order number.
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber int64) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := s.db.GetContext(ctx, &record,
		"SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrderByIdempotencyKey returns the order created with the given key,
// or nil when none exists.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := s.db.GetContext(ctx, &record,
		"SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateOrderStatus updates an order's status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNumber int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE order_number = $2",
		status, orderNumber)
	return err
}

// GetOrdersByFlavor retrieves order records for a flavor, newest first.
func (s *Store) GetOrdersByFlavor(ctx context.Context, flavor models.Flavor) ([]models.OrderRecord, error) {
	var records []models.OrderRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM orders WHERE flavor = $1 ORDER BY created_at DESC", flavor)
	return records, err
}

// DecodeJarQuantities unpacks the stored jsonb jar quantities.
func DecodeJarQuantities(record *models.OrderRecord) (map[models.JarSize]int, error) {
	quantities := make(map[models.JarSize]int)
	if err := json.Unmarshal(record.JarQuantities, &quantities); err != nil {
		return nil, fmt.Errorf("failed to decode jar quantities for order %d: %w", record.OrderNumber, err)
	}
	return quantities, nil
}
