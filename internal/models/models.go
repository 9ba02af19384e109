package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flavor is a category of bulk honey. Each flavor is backed by its own
// stock row in the honey pool.
type Flavor string

const (
	FlavorAcacia      Flavor = "ACACIA"
	FlavorRapeseed    Flavor = "RAPESEED"
	FlavorWildflower  Flavor = "WILDFLOWER"
	FlavorLinden      Flavor = "LINDEN"
	FlavorSunflower   Flavor = "SUNFLOWER"
	FlavorFalseIndigo Flavor = "FALSE_INDIGO"
)

// Flavors lists all flavors in declaration order.
var Flavors = []Flavor{
	FlavorAcacia,
	FlavorRapeseed,
	FlavorWildflower,
	FlavorLinden,
	FlavorSunflower,
	FlavorFalseIndigo,
}

// Valid reports whether f is a known flavor.
func (f Flavor) Valid() bool {
	switch f {
	case FlavorAcacia, FlavorRapeseed, FlavorWildflower,
		FlavorLinden, FlavorSunflower, FlavorFalseIndigo:
		return true
	}
	return false
}

// JarSize identifies a jar format. Each size holds a fixed amount of honey.
type JarSize string

const (
	Jar200 JarSize = "JAR200"
	Jar400 JarSize = "JAR400"
	Jar800 JarSize = "JAR800"
)

// JarSizes lists all jar sizes in declaration order. The proportional
// reduction of jar quantities walks sizes in this order, so it must stay
// stable.
var JarSizes = []JarSize{Jar200, Jar400, Jar800}

var kgPerJar = map[JarSize]decimal.Decimal{
	Jar200: decimal.RequireFromString("0.28"),
	Jar400: decimal.RequireFromString("0.56"),
	Jar800: decimal.RequireFromString("1"),
}

// KgPerJar returns the honey weight one jar of this size holds.
func (j JarSize) KgPerJar() decimal.Decimal {
	return kgPerJar[j]
}

// Valid reports whether j is a known jar size.
func (j JarSize) Valid() bool {
	_, ok := kgPerJar[j]
	return ok
}

// CrateSize identifies a shipping crate format. Each crate size carries
// exactly one jar size.
type CrateSize string

const (
	Crate200 CrateSize = "CRATE200"
	Crate400 CrateSize = "CRATE400"
	Crate800 CrateSize = "CRATE800"
)

// CrateSizes lists all crate sizes in declaration order.
var CrateSizes = []CrateSize{Crate200, Crate400, Crate800}

var crateSpec = map[CrateSize]struct {
	jarSize      JarSize
	jarsPerCrate int
}{
	Crate200: {Jar200, 48},
	Crate400: {Jar400, 24},
	Crate800: {Jar800, 12},
}

// JarSize returns the jar size this crate carries.
func (c CrateSize) JarSize() JarSize {
	return crateSpec[c].jarSize
}

// JarsPerCrate returns how many jars fit in one crate of this size.
func (c CrateSize) JarsPerCrate() int {
	return crateSpec[c].jarsPerCrate
}

// CratesNeededForJars returns the crate count for jarsCount jars, rounded up.
func (c CrateSize) CratesNeededForJars(jarsCount int) int {
	per := c.JarsPerCrate()
	return (jarsCount + per - 1) / per
}

// JarsCapacityForCrates returns how many jars cratesCount crates can hold.
func (c CrateSize) JarsCapacityForCrates(cratesCount int) int {
	return cratesCount * c.JarsPerCrate()
}

// CrateFor returns the crate size that carries the given jar size.
func CrateFor(j JarSize) CrateSize {
	switch j {
	case Jar200:
		return Crate200
	case Jar400:
		return Crate400
	default:
		return Crate800
	}
}

// LabelSize identifies a label format. One label per jar, one size per
// jar size.
type LabelSize string

const (
	Label200 LabelSize = "LABEL200"
	Label400 LabelSize = "LABEL400"
	Label800 LabelSize = "LABEL800"
)

// LabelFor returns the label size matching the given jar size.
func LabelFor(j JarSize) LabelSize {
	switch j {
	case Jar200:
		return Label200
	case Jar400:
		return Label400
	default:
		return Label800
	}
}

// JarFor returns the jar size matching the given label size.
func JarFor(l LabelSize) JarSize {
	switch l {
	case Label200:
		return Jar200
	case Label400:
		return Jar400
	default:
		return Jar800
	}
}

// Order is a customer order: one flavor, jar counts per size. Immutable
// once created.
type Order struct {
	OrderNumber   int64           `json:"order_number"`
	Flavor        Flavor          `json:"flavor"`
	JarQuantities map[JarSize]int `json:"jar_quantities"`
}

// TotalJars returns the total positive jar count across sizes.
func (o Order) TotalJars() int {
	total := 0
	for _, qty := range o.JarQuantities {
		if qty > 0 {
			total += qty
		}
	}
	return total
}

// TotalKg returns the honey weight needed to fill every requested jar.
func (o Order) TotalKg() decimal.Decimal {
	total := decimal.Zero
	for size, qty := range o.JarQuantities {
		if qty > 0 {
			total = total.Add(size.KgPerJar().Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	return total
}

// OrderRecord is the persisted form of an order.
type OrderRecord struct {
	OrderNumber    int64     `db:"order_number" json:"order_number"`
	Flavor         string    `db:"flavor" json:"flavor"`
	JarQuantities  []byte    `db:"jar_quantities" json:"-"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusCreated           = "CREATED"
	OrderStatusReserved          = "RESERVED"
	OrderStatusPartiallyReserved = "PARTIALLY_RESERVED"
	OrderStatusFailed            = "FAILED"
)

// Delivery is the outcome of one committed honey delivery: how much the
// pool actually delivered, what remains, and the new row version.
type Delivery struct {
	DeliveredKg decimal.Decimal `json:"delivered_kg"`
	RemainingKg decimal.Decimal `json:"remaining_kg"`
	Version     int64           `json:"version"`
}

// PrepResource names a discrete packaging pool.
type PrepResource string

const (
	PrepJars   PrepResource = "JARS"
	PrepLabels PrepResource = "LABELS"
	PrepCrates PrepResource = "CRATES"
)

// PrepCommand is the dispatch unit handed to downstream fulfillment after a
// reservation commits: pull quantity units of resource for jarSize from the
// named warehouse.
type PrepCommand struct {
	WarehouseKey string       `json:"warehouse_key"`
	Resource     PrepResource `json:"resource"`
	JarSize      JarSize      `json:"jar_size"`
	Quantity     int          `json:"quantity"`
}
