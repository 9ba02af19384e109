package service

import (
	"context"

	"honey-fulfillment/internal/models"

	"github.com/shopspring/decimal"
)

// HoneyPool is the bulk honey store for all flavors. Deliver commits a
// capped delivery through the pool's optimistic-concurrency protocol and
// retries version conflicts internally up to its configured limit. The
// pool, not the caller, decides how much it can actually deliver at commit
// time.
type HoneyPool interface {
	AvailableKg(ctx context.Context, flavor models.Flavor) (decimal.Decimal, error)
	Deliver(ctx context.Context, flavor models.Flavor, orderNumber int64, requestedKg decimal.Decimal) (models.Delivery, error)
}

// JarPool is the empty-jar store. Deliver increments the ordered counter,
// performs a capped delivery per size and returns what was actually
// delivered.
type JarPool interface {
	Available(ctx context.Context) (map[models.JarSize]int, error)
	Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.JarSize]int, error)
}

// LabelPool is the label store, same shape as JarPool (1 label = 1 jar).
type LabelPool interface {
	Available(ctx context.Context) (map[models.JarSize]int, error)
	Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.JarSize]int, error)
}

// CratePool is the shipping-crate store. Deliver takes jar quantities and
// translates them to crate counts internally (ceil per crate size).
type CratePool interface {
	Available(ctx context.Context) (map[models.CrateSize]int, error)
	Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.CrateSize]int, error)
}
