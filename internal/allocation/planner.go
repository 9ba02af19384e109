package allocation

import (
	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WarehouseStock is one warehouse's available honey per flavor. Planners
// consume warehouses in slice order, so the caller's ordering is the
// allocation priority.
type WarehouseStock struct {
	Key       string
	Available map[models.Flavor]decimal.Decimal
}

// Planner computes allocation plans from stock snapshots. It performs no
// reservations and no retries; it only decides which warehouse supplies
// what.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner creates a new planner.
func NewPlanner() *Planner {
	return &Planner{logger: util.GetLogger()}
}

// PlanGreedy assigns each flavor's request across warehouses in priority
// order, taking min(available, remaining) from each until the request is met
// or supply runs out. It works on a deep copy of the snapshot; the caller's
// structures are never mutated. Under-allocation is reflected in the
// returned plan's status, not raised as an error.
func (pl *Planner) PlanGreedy(orderNumber int64,
	requestedByFlavor map[models.Flavor]decimal.Decimal,
	stockByWarehouse []WarehouseStock) (*Plan, error) {

	plan, err := NewPlan(orderNumber, requestedByFlavor)
	if err != nil {
		return nil, err
	}

	stockCopy := deepCopyStock(stockByWarehouse)

	for _, flavor := range models.Flavors {
		remaining, ok := requestedByFlavor[flavor]
		if !ok || !remaining.IsPositive() {
			continue
		}

		for i := range stockCopy {
			if remaining.IsZero() {
				break
			}

			available := stockCopy[i].Available[flavor]
			if !available.IsPositive() {
				continue
			}

			take := decimal.Min(available, remaining)
			if err := plan.AllocateToWarehouse(flavor, take, stockCopy[i].Key); err != nil {
				return nil, err
			}
			stockCopy[i].Available[flavor] = available.Sub(take)
			remaining = remaining.Sub(take)
		}

		if remaining.IsPositive() {
			pl.logger.Warn("Greedy plan under-allocated",
				zap.Int64("order_number", orderNumber),
				zap.String("flavor", string(flavor)),
				zap.String("short_kg", remaining.String()))
		}
	}

	return plan, nil
}

// CanFulfillAll reports whether total stock per flavor covers the request.
// Pure predicate; nothing is mutated.
func (pl *Planner) CanFulfillAll(requestedByFlavor map[models.Flavor]decimal.Decimal,
	stockByWarehouse []WarehouseStock) bool {

	totals := make(map[models.Flavor]decimal.Decimal, len(requestedByFlavor))
	for _, wh := range stockByWarehouse {
		for flavor, kg := range wh.Available {
			if kg.IsPositive() {
				totals[flavor] = totals[flavor].Add(kg)
			}
		}
	}
	for flavor, req := range requestedByFlavor {
		if totals[flavor].LessThan(req) {
			return false
		}
	}
	return true
}

// PlanAllOrNothing returns (nil, nil) when the request cannot be fully
// covered, otherwise the complete greedy plan. A caller never observes a
// partial plan from this path.
func (pl *Planner) PlanAllOrNothing(orderNumber int64,
	requestedByFlavor map[models.Flavor]decimal.Decimal,
	stockByWarehouse []WarehouseStock) (*Plan, error) {

	if !pl.CanFulfillAll(requestedByFlavor, stockByWarehouse) {
		return nil, nil
	}
	return pl.PlanGreedy(orderNumber, requestedByFlavor, stockByWarehouse)
}

func deepCopyStock(src []WarehouseStock) []WarehouseStock {
	out := make([]WarehouseStock, len(src))
	for i, wh := range src {
		available := make(map[models.Flavor]decimal.Decimal, len(wh.Available))
		for flavor, kg := range wh.Available {
			available[flavor] = kg
		}
		out[i] = WarehouseStock{Key: wh.Key, Available: available}
	}
	return out
}
