package allocation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quantities are normalized to this decimal scale, half-up.
const kgScale = 3

var (
	// ErrEmptyRequest is returned when a plan is created with no requested
	// quantities.
	ErrEmptyRequest = errors.New("requested quantities must not be empty")

	// ErrNegativeQuantity is returned when a requested quantity is negative.
	ErrNegativeQuantity = errors.New("requested quantity must be >= 0")

	// ErrCapacityExceeded is returned when an allocation would push the
	// allocated total for a flavor above what was requested. This is a
	// programming error in the caller, not a business outcome.
	ErrCapacityExceeded = errors.New("allocation exceeds remaining request")

	// ErrPlanRejected is returned when allocating against a rejected plan.
	ErrPlanRejected = errors.New("plan is rejected")
)

// PlanStatus tracks how much of the requested quantity has been covered.
type PlanStatus string

const (
	StatusDraft              PlanStatus = "DRAFT"
	StatusPartiallyAllocated PlanStatus = "PARTIALLY_ALLOCATED"
	StatusFullyAllocated     PlanStatus = "FULLY_ALLOCATED"
	StatusRejected           PlanStatus = "REJECTED"
)

// Line records one allocation: quantityKg of flavor supplied by the
// warehouse identified by WarehouseKey. Lines are append-only.
type Line struct {
	WarehouseKey string          `json:"warehouse_key"`
	Flavor       models.Flavor   `json:"flavor"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Plan is the per-order record of requested versus allocated honey. The
// requested map is immutable after construction; lines only grow.
// AllocateToWarehouse is the single mutation point.
type Plan struct {
	mu sync.Mutex

	orderNumber int64
	createdAt   time.Time
	requested   map[models.Flavor]decimal.Decimal
	lines       []Line
	allocated   map[models.Flavor]decimal.Decimal
	status      PlanStatus

	logger *zap.Logger
}

// NewPlan validates and normalizes the requested quantities (scale 3,
// half-up) and returns a DRAFT plan.
func NewPlan(orderNumber int64, requested map[models.Flavor]decimal.Decimal) (*Plan, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyRequest
	}

	normalized := make(map[models.Flavor]decimal.Decimal, len(requested))
	for flavor, kg := range requested {
		if kg.IsNegative() {
			return nil, fmt.Errorf("requested[%s]: %w", flavor, ErrNegativeQuantity)
		}
		normalized[flavor] = kg.Round(kgScale)
	}

	p := &Plan{
		orderNumber: orderNumber,
		createdAt:   time.Now(),
		requested:   normalized,
		allocated:   make(map[models.Flavor]decimal.Decimal, len(normalized)),
		status:      StatusDraft,
		logger:      util.GetLogger(),
	}
	return p, nil
}

// AllocateToWarehouse appends an allocation line after checking it does not
// exceed the remaining request for the flavor. On failure the plan is left
// unchanged.
func (p *Plan) AllocateToWarehouse(flavor models.Flavor, quantityKg decimal.Decimal, warehouseKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusRejected {
		return ErrPlanRejected
	}
	if !quantityKg.IsPositive() {
		return fmt.Errorf("quantityKg must be > 0: %w", ErrNegativeQuantity)
	}

	remaining := p.remainingLocked(flavor)
	qty := quantityKg.Round(kgScale)
	if qty.GreaterThan(remaining) {
		p.logger.Error("Allocation exceeds remaining request",
			zap.Int64("order_number", p.orderNumber),
			zap.String("flavor", string(flavor)),
			zap.String("remaining_kg", remaining.String()),
			zap.String("tried_kg", qty.String()))
		return fmt.Errorf("%w: flavor=%s remaining=%s tried=%s",
			ErrCapacityExceeded, flavor, remaining, qty)
	}

	p.lines = append(p.lines, Line{
		WarehouseKey: warehouseKey,
		Flavor:       flavor,
		QuantityKg:   qty,
		CreatedAt:    time.Now(),
	})
	p.allocated[flavor] = p.allocated[flavor].Add(qty)
	p.refreshStatusLocked()
	return nil
}

// Reject moves the plan to the terminal REJECTED state. Further allocation
// attempts fail.
func (p *Plan) Reject() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusRejected
}

// OrderNumber returns the order this plan was created for.
func (p *Plan) OrderNumber() int64 { return p.orderNumber }

// CreatedAt returns the plan creation time.
func (p *Plan) CreatedAt() time.Time { return p.createdAt }

// Status returns the current plan status.
func (p *Plan) Status() PlanStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Requested returns the normalized requested kg for a flavor.
func (p *Plan) Requested(flavor models.Flavor) decimal.Decimal {
	return p.requested[flavor]
}

// Allocated returns the kg allocated so far for a flavor.
func (p *Plan) Allocated(flavor models.Flavor) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated[flavor]
}

// Remaining returns requested minus allocated for a flavor, floored at zero.
func (p *Plan) Remaining(flavor models.Flavor) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked(flavor)
}

// TotalAllocated sums allocated kg across flavors.
func (p *Plan) TotalAllocated() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := decimal.Zero
	for _, kg := range p.allocated {
		total = total.Add(kg)
	}
	return total
}

// TotalRequested sums requested kg across flavors.
func (p *Plan) TotalRequested() decimal.Decimal {
	total := decimal.Zero
	for _, kg := range p.requested {
		total = total.Add(kg)
	}
	return total
}

// IsFullyAllocated reports whether every flavor's allocation covers its
// request.
func (p *Plan) IsFullyAllocated() bool {
	return p.Status() == StatusFullyAllocated
}

// Lines returns a copy of the allocation lines in append order.
func (p *Plan) Lines() []Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Line, len(p.lines))
	copy(out, p.lines)
	return out
}

// GroupByWarehouse projects lines by supplying warehouse.
func (p *Plan) GroupByWarehouse() map[string][]Line {
	groups := make(map[string][]Line)
	for _, line := range p.Lines() {
		groups[line.WarehouseKey] = append(groups[line.WarehouseKey], line)
	}
	return groups
}

// GroupByFlavor projects lines by flavor.
func (p *Plan) GroupByFlavor() map[models.Flavor][]Line {
	groups := make(map[models.Flavor][]Line)
	for _, line := range p.Lines() {
		groups[line.Flavor] = append(groups[line.Flavor], line)
	}
	return groups
}

func (p *Plan) remainingLocked(flavor models.Flavor) decimal.Decimal {
	remaining := p.requested[flavor].Sub(p.allocated[flavor])
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// refreshStatusLocked recomputes status from the allocated cache. REJECTED
// is sticky.
func (p *Plan) refreshStatusLocked() {
	if p.status == StatusRejected {
		return
	}

	allSatisfied := true
	for flavor, req := range p.requested {
		if p.allocated[flavor].LessThan(req) {
			allSatisfied = false
			break
		}
	}
	anyAllocated := false
	for _, kg := range p.allocated {
		if kg.IsPositive() {
			anyAllocated = true
			break
		}
	}

	switch {
	case allSatisfied:
		p.status = StatusFullyAllocated
	case anyAllocated:
		p.status = StatusPartiallyAllocated
	default:
		p.status = StatusDraft
	}
}
