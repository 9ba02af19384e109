package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"honey-fulfillment/internal/allocation"
	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/store"
	"honey-fulfillment/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Failure reasons carried on a failed ReservationResult.
const (
	ReasonNoQuantity          = "NO_QUANTITY"
	ReasonCapacityCheckFailed = "CAPACITY_CHECK_FAILED"
	ReasonNothingDeliverable  = "NOTHING_DELIVERABLE"
	ReasonHoneyDeliveryFailed = "HONEY_DELIVERY_FAILED"
	ReasonNoHoneyDelivered    = "NO_HONEY_DELIVERED"
	ReasonUpdateConflict      = "CONCURRENT_UPDATE_CONFLICT"
	ReasonPlanFailed          = "PLAN_CONSTRUCTION_FAILED"
	ReasonPackagingFailed     = "PACKAGING_FAILED"
)

// ReservationResult reports the outcome of one reservation attempt.
// Business-level non-fulfillment is a failed result, never an error; callers
// do not need error inspection to detect it. DeliveredKg can be positive on
// a failed result when honey committed before packaging failed — partial
// reservation is a first-class outcome, not rolled back.
type ReservationResult struct {
	Success      bool
	Reason       string
	Message      string
	Plan         *allocation.Plan
	DeliveredKg  decimal.Decimal
	ApprovedJars map[models.JarSize]int
	PrepCommands []models.PrepCommand
}

// Partial reports whether honey was committed without full packaging.
func (r ReservationResult) Partial() bool {
	return !r.Success && r.DeliveredKg.IsPositive()
}

// ReservationOrchestrator drives one order through capacity check,
// bottleneck computation and per-pool committed reservation. The four pools
// are independently stored; there is no cross-pool transaction.
type ReservationOrchestrator struct {
	honey  HoneyPool
	jars   JarPool
	labels LabelPool
	crates CratePool

	planner         *allocation.Planner
	capacityTimeout time.Duration
	logger          *zap.Logger
}

// NewReservationOrchestrator creates a new orchestrator over the four pools.
func NewReservationOrchestrator(
	honey HoneyPool,
	jars JarPool,
	labels LabelPool,
	crates CratePool,
	capacityTimeout time.Duration,
) *ReservationOrchestrator {
	return &ReservationOrchestrator{
		honey:           honey,
		jars:            jars,
		labels:          labels,
		crates:          crates,
		planner:         allocation.NewPlanner(),
		capacityTimeout: capacityTimeout,
		logger:          util.GetLogger(),
	}
}

// capacitySnapshot is the joined result of the four parallel capacity reads.
type capacitySnapshot struct {
	honeyKg   decimal.Decimal
	packaging allocation.PackagingSnapshot
}

// ReserveFor runs the full reservation for one order.
func (ro *ReservationOrchestrator) ReserveFor(ctx context.Context, order models.Order) ReservationResult {
	ctx, span := util.StartSpan(ctx, "ReservationOrchestrator.ReserveFor")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReservationLatency.Observe(time.Since(start).Seconds())
	}()

	ro.logger.Info("Reservation started",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("flavor", string(order.Flavor)),
		zap.Int("total_jars", order.TotalJars()))

	if order.TotalJars() == 0 {
		return ro.failure(order, ReasonNoQuantity, decimal.Zero,
			fmt.Sprintf("no jars requested for order #%d", order.OrderNumber))
	}

	snapshot, err := ro.fetchCapacities(ctx, order)
	if err != nil {
		ro.logger.Error("Capacity check failed",
			zap.Int64("order_number", order.OrderNumber),
			zap.Error(err))
		return ro.failure(order, ReasonCapacityCheckFailed, decimal.Zero,
			fmt.Sprintf("capacity check failed for order #%d: %v", order.OrderNumber, err))
	}

	requestedKg := order.TotalKg()
	deliverableKg := allocation.DeliverableKg(order, snapshot.honeyKg, snapshot.packaging)
	ro.logger.Info("Bottleneck computed",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("requested_kg", requestedKg.String()),
		zap.String("honey_available_kg", snapshot.honeyKg.String()),
		zap.String("deliverable_kg", deliverableKg.String()))

	if !deliverableKg.IsPositive() {
		return ro.failure(order, ReasonNothingDeliverable, decimal.Zero,
			fmt.Sprintf("nothing deliverable for order #%d", order.OrderNumber))
	}

	delivery, err := ro.honey.Deliver(ctx, order.Flavor, order.OrderNumber, deliverableKg)
	if err != nil {
		reason := ReasonHoneyDeliveryFailed
		if errors.Is(err, store.ErrConcurrentUpdate) {
			reason = ReasonUpdateConflict
		}
		ro.logger.Error("Honey delivery failed",
			zap.Int64("order_number", order.OrderNumber),
			zap.String("flavor", string(order.Flavor)),
			zap.Error(err))
		return ro.failure(order, reason, decimal.Zero,
			fmt.Sprintf("honey delivery failed for order #%d: %v", order.OrderNumber, err))
	}
	if !delivery.DeliveredKg.IsPositive() {
		return ro.failure(order, ReasonNoHoneyDelivered, decimal.Zero,
			fmt.Sprintf("honey pool delivered nothing for order #%d", order.OrderNumber))
	}

	// The pool is authoritative for what it could deliver at commit time;
	// jar quantities must fit the delivered weight, not the earlier read.
	approvedJars := allocation.ScaleJarQuantities(order.JarQuantities, delivery.DeliveredKg)

	plan, err := ro.buildPlan(order, delivery.DeliveredKg)
	if err != nil {
		return ro.failure(order, ReasonPlanFailed, delivery.DeliveredKg,
			fmt.Sprintf("plan construction failed for order #%d: %v", order.OrderNumber, err))
	}

	if err := ro.commitPackaging(ctx, order.OrderNumber, approvedJars); err != nil {
		reason := ReasonPackagingFailed
		if errors.Is(err, store.ErrConcurrentUpdate) {
			reason = ReasonUpdateConflict
		}
		plan.Reject()
		util.ReservationsPartialTotal.Inc()
		ro.logger.Error("Packaging reservation failed after honey commit",
			zap.Int64("order_number", order.OrderNumber),
			zap.String("delivered_kg", delivery.DeliveredKg.String()),
			zap.Error(err))
		result := ro.failure(order, reason, delivery.DeliveredKg,
			fmt.Sprintf("packaging reservation failed for order #%d: %v", order.OrderNumber, err))
		result.Plan = plan
		result.ApprovedJars = approvedJars
		return result
	}

	commands := buildPrepCommands(order.OrderNumber, approvedJars)

	util.ReservationsSucceededTotal.Inc()
	util.DeliveredKgTotal.Add(toFloat(delivery.DeliveredKg))
	ro.logger.Info("Reservation succeeded",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("delivered_kg", delivery.DeliveredKg.String()),
		zap.Int("prep_commands", len(commands)))

	return ReservationResult{
		Success:      true,
		Message:      fmt.Sprintf("reservation complete for order #%d", order.OrderNumber),
		Plan:         plan,
		DeliveredKg:  delivery.DeliveredKg,
		ApprovedJars: approvedJars,
		PrepCommands: commands,
	}
}

// fetchCapacities forks the four capacity reads and joins them, cancelling
// the rest on the first failure.
func (ro *ReservationOrchestrator) fetchCapacities(ctx context.Context, order models.Order) (capacitySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, ro.capacityTimeout)
	defer cancel()

	var (
		snapshot capacitySnapshot
		wg       sync.WaitGroup
		errCh    = make(chan error, 4)
	)

	fork := func(name string, read func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := read(ctx); err != nil {
				errCh <- fmt.Errorf("%s capacity read: %w", name, err)
				cancel()
			}
		}()
	}

	fork("honey", func(ctx context.Context) error {
		kg, err := ro.honey.AvailableKg(ctx, order.Flavor)
		if err != nil {
			return err
		}
		snapshot.honeyKg = kg
		return nil
	})
	fork("jars", func(ctx context.Context) error {
		counts, err := ro.jars.Available(ctx)
		if err != nil {
			return err
		}
		snapshot.packaging.Jars = counts
		return nil
	})
	fork("labels", func(ctx context.Context) error {
		counts, err := ro.labels.Available(ctx)
		if err != nil {
			return err
		}
		snapshot.packaging.Labels = counts
		return nil
	})
	fork("crates", func(ctx context.Context) error {
		counts, err := ro.crates.Available(ctx)
		if err != nil {
			return err
		}
		snapshot.packaging.Crates = counts
		return nil
	})

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return capacitySnapshot{}, err
	}
	return snapshot, nil
}

// commitPackaging commits jar, label and crate deliveries concurrently.
// Each pool runs its own optimistic-concurrency protocol; there is no
// ordering between them.
func (ro *ReservationOrchestrator) commitPackaging(ctx context.Context, orderNumber int64, approvedJars map[models.JarSize]int) error {
	var (
		wg    sync.WaitGroup
		errCh = make(chan error, 3)
	)

	commit := func(name string, deliver func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := deliver(); err != nil {
				errCh <- fmt.Errorf("%s delivery: %w", name, err)
			}
		}()
	}

	commit("jars", func() error {
		delivered, err := ro.jars.Deliver(ctx, orderNumber, approvedJars)
		if err != nil {
			return err
		}
		ro.logDelivered(orderNumber, "jars", approvedJars, delivered)
		return nil
	})
	commit("labels", func() error {
		delivered, err := ro.labels.Deliver(ctx, orderNumber, approvedJars)
		if err != nil {
			return err
		}
		ro.logDelivered(orderNumber, "labels", approvedJars, delivered)
		return nil
	})
	commit("crates", func() error {
		_, err := ro.crates.Deliver(ctx, orderNumber, approvedJars)
		return err
	})

	wg.Wait()
	close(errCh)
	return <-errCh
}

// buildPlan runs the allocation planner over the flavor's honey warehouse.
// The stock handed to the planner is the delivery the pool just committed,
// so the all-or-nothing path is always feasible; a nil plan here is a
// programming error, not a stock condition.
func (ro *ReservationOrchestrator) buildPlan(order models.Order, deliveredKg decimal.Decimal) (*allocation.Plan, error) {
	requested := map[models.Flavor]decimal.Decimal{order.Flavor: deliveredKg}
	stock := []allocation.WarehouseStock{{
		Key:       HoneyWarehouseKey(order.Flavor),
		Available: map[models.Flavor]decimal.Decimal{order.Flavor: deliveredKg},
	}}

	plan, err := ro.planner.PlanAllOrNothing(order.OrderNumber, requested, stock)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("no feasible honey plan for order #%d", order.OrderNumber)
	}
	return plan, nil
}

func (ro *ReservationOrchestrator) logDelivered(orderNumber int64, pool string, requested, delivered map[models.JarSize]int) {
	for _, size := range models.JarSizes {
		req := requested[size]
		if req == 0 {
			continue
		}
		if delivered[size] < req {
			ro.logger.Warn("Partial packaging delivery",
				zap.Int64("order_number", orderNumber),
				zap.String("pool", pool),
				zap.String("jar_size", string(size)),
				zap.Int("requested", req),
				zap.Int("delivered", delivered[size]))
		}
	}
}

func (ro *ReservationOrchestrator) failure(order models.Order, reason string, deliveredKg decimal.Decimal, message string) ReservationResult {
	util.ReservationsFailedTotal.WithLabelValues(reason).Inc()
	ro.logger.Warn("Reservation failed",
		zap.Int64("order_number", order.OrderNumber),
		zap.String("reason", reason),
		zap.String("message", message))
	return ReservationResult{
		Reason:      reason,
		Message:     message,
		DeliveredKg: deliveredKg,
	}
}

// HoneyWarehouseKey names the honey warehouse backing a flavor.
func HoneyWarehouseKey(flavor models.Flavor) string {
	return "HONEY-" + string(flavor)
}

// Warehouse keys for the discrete packaging pools.
const (
	JarsWarehouseKey   = "PKG-JARS"
	LabelsWarehouseKey = "PKG-LABELS"
	CratesWarehouseKey = "PKG-CRATES"
)

// buildPrepCommands emits the dispatch units for downstream fulfillment:
// jars and labels per approved size, crates per converted crate size.
func buildPrepCommands(orderNumber int64, approvedJars map[models.JarSize]int) []models.PrepCommand {
	var commands []models.PrepCommand
	for _, size := range models.JarSizes {
		qty := approvedJars[size]
		if qty <= 0 {
			continue
		}
		commands = append(commands,
			models.PrepCommand{WarehouseKey: JarsWarehouseKey, Resource: models.PrepJars, JarSize: size, Quantity: qty},
			models.PrepCommand{WarehouseKey: LabelsWarehouseKey, Resource: models.PrepLabels, JarSize: size, Quantity: qty},
		)
	}
	crates := allocation.CratesNeeded(approvedJars)
	for _, crate := range models.CrateSizes {
		count := crates[crate]
		if count <= 0 {
			continue
		}
		commands = append(commands, models.PrepCommand{
			WarehouseKey: CratesWarehouseKey,
			Resource:     models.PrepCrates,
			JarSize:      crate.JarSize(),
			Quantity:     count,
		})
	}
	return commands
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
