package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HoneyStore is the bulk honey pool: one versioned stock row per flavor.
// Every mutation goes through a conditional update on row_version, so two
// concurrent deliveries against the same flavor cannot both succeed past
// the available amount.
type HoneyStore struct {
	s      *Store
	logger *zap.Logger
}

// Honey returns the honey pool view of the store.
func (s *Store) Honey() *HoneyStore {
	return &HoneyStore{s: s, logger: util.GetLogger()}
}

type honeyRow struct {
	AvailableKg decimal.Decimal `db:"available_kg"`
	DeliveredKg decimal.Decimal `db:"delivered_kg"`
	RowVersion  int64           `db:"row_version"`
}

// AvailableKg returns the current available weight for a flavor, floored at
// zero. A missing row reads as zero stock.
func (h *HoneyStore) AvailableKg(ctx context.Context, flavor models.Flavor) (decimal.Decimal, error) {
	var kg decimal.Decimal
	err := h.s.db.GetContext(ctx, &kg,
		"SELECT COALESCE(available_kg, 0) FROM honey_stock WHERE flavor = $1", flavor)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read honey stock for %s: %w", flavor, err)
	}
	if kg.IsNegative() {
		return decimal.Zero, nil
	}
	return kg, nil
}

// Deliver commits a capped honey delivery: read the row, clamp the request
// to what is available, and apply it only if the version still matches.
// The clamp and the write belong to the same attempt; a version miss means
// another order moved the stock, so the whole attempt is redone from a
// fresh read. Retries are bounded by the store's retry limit.
func (h *HoneyStore) Deliver(ctx context.Context, flavor models.Flavor, orderNumber int64, requestedKg decimal.Decimal) (models.Delivery, error) {
	if requestedKg.IsNegative() {
		return models.Delivery{}, fmt.Errorf("requestedKg must be >= 0, got %s", requestedKg)
	}

	var delivery models.Delivery
	err := h.s.runWithVersionRetry("honey", func(attempt int) (bool, error) {
		var row honeyRow
		err := h.s.db.GetContext(ctx, &row,
			"SELECT COALESCE(available_kg,0) AS available_kg, COALESCE(delivered_kg,0) AS delivered_kg, row_version FROM honey_stock WHERE flavor = $1",
			flavor)
		if err != nil {
			return false, fmt.Errorf("failed to read honey stock for %s: %w", flavor, err)
		}

		willDeliver := decimal.Min(requestedKg, row.AvailableKg)
		if willDeliver.IsNegative() {
			willDeliver = decimal.Zero
		}

		res, err := h.s.db.ExecContext(ctx,
			`UPDATE honey_stock
			    SET delivered_kg = delivered_kg + $1,
			        available_kg = GREATEST(available_kg - $1, 0),
			        row_version  = row_version + 1,
			        updated_at   = NOW()
			  WHERE flavor = $2 AND row_version = $3 AND available_kg >= $1`,
			willDeliver, flavor, row.RowVersion)
		if err != nil {
			return false, fmt.Errorf("failed to deliver honey for %s: %w", flavor, err)
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			h.logger.Debug("Honey delivery version conflict, retrying",
				zap.Int64("order_number", orderNumber),
				zap.String("flavor", string(flavor)),
				zap.Int("attempt", attempt))
			return false, nil
		}

		_, logErr := h.s.db.ExecContext(ctx,
			`INSERT INTO processing_log (order_number, pool, item_key, requested_qty, delivered_qty, reason)
			 VALUES ($1, 'HONEY', $2, $3, $4, 'DELIVER')`,
			orderNumber, flavor, requestedKg, willDeliver)
		if logErr != nil {
			h.logger.Error("Failed to write processing log",
				zap.Int64("order_number", orderNumber),
				zap.Error(logErr))
		}

		delivery = models.Delivery{
			DeliveredKg: willDeliver,
			RemainingKg: row.AvailableKg.Sub(willDeliver),
			Version:     row.RowVersion + 1,
		}
		return true, nil
	})
	if errors.Is(err, ErrConcurrentUpdate) {
		h.logger.Warn("Honey delivery exhausted retries",
			zap.Int64("order_number", orderNumber),
			zap.String("flavor", string(flavor)),
			zap.Int("retry_limit", h.s.retryLimit))
		return models.Delivery{}, fmt.Errorf("honey delivery for %s: %w", flavor, err)
	}
	if err != nil {
		return models.Delivery{}, err
	}
	return delivery, nil
}
