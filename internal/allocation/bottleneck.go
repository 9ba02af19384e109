package allocation

import (
	"honey-fulfillment/internal/models"

	"github.com/shopspring/decimal"
)

// PackagingSnapshot holds one point-in-time read of the three discrete
// packaging pools.
type PackagingSnapshot struct {
	Jars   map[models.JarSize]int
	Labels map[models.JarSize]int
	Crates map[models.CrateSize]int
}

// JarsFor returns available jar count for a size.
func (s PackagingSnapshot) JarsFor(size models.JarSize) int {
	return s.Jars[size]
}

// LabelsFor returns available label count for a jar size (1 label = 1 jar).
func (s PackagingSnapshot) LabelsFor(size models.JarSize) int {
	return s.Labels[size]
}

// CrateJarCapacityFor returns how many jars of a size the available crates
// can carry.
func (s PackagingSnapshot) CrateJarCapacityFor(size models.JarSize) int {
	crate := models.CrateFor(size)
	return crate.JarsCapacityForCrates(s.Crates[crate])
}

// PackagingKg converts the discrete packaging constraints into an
// equivalent deliverable weight: per jar size, the minimum of requested,
// jars available, labels available and crate capacity, times kg per jar,
// summed across sizes.
func PackagingKg(requested map[models.JarSize]int, snapshot PackagingSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, size := range models.JarSizes {
		want := requested[size]
		if want <= 0 {
			continue
		}
		fillable := minInt(want,
			snapshot.JarsFor(size),
			snapshot.LabelsFor(size),
			snapshot.CrateJarCapacityFor(size))
		if fillable > 0 {
			total = total.Add(size.KgPerJar().Mul(decimal.NewFromInt(int64(fillable))))
		}
	}
	return total
}

// DeliverableKg is the bottleneck across all constraints: the requested
// weight itself, the honey available for the order's flavor, and the
// packaging capacity. Zero or negative means nothing can be delivered.
func DeliverableKg(order models.Order, honeyAvailableKg decimal.Decimal, snapshot PackagingSnapshot) decimal.Decimal {
	requestedKg := order.TotalKg()
	packagingKg := PackagingKg(order.JarQuantities, snapshot)

	deliverable := decimal.Min(requestedKg, honeyAvailableKg, packagingKg)
	if deliverable.IsNegative() {
		return decimal.Zero
	}
	return deliverable
}

// ScaleJarQuantities reduces jar counts proportionally to fit targetKg:
// each size is scaled by targetKg/totalKg and floored, then single jars are
// added back while the cumulative weight stays within targetKg and each
// size stays within its own requested count. The top-up walks sizes in
// JarSize declaration order and exhausts each size before considering the
// next, so leftover weight goes to the smallest jars first. The flooring
// never exceeds the target; the top-up closes the gap flooring leaves.
func ScaleJarQuantities(requested map[models.JarSize]int, targetKg decimal.Decimal) map[models.JarSize]int {
	scaled := make(map[models.JarSize]int, len(requested))

	totalKg := decimal.Zero
	for size, qty := range requested {
		if qty > 0 {
			totalKg = totalKg.Add(size.KgPerJar().Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	if !totalKg.IsPositive() || !targetKg.IsPositive() {
		for _, size := range models.JarSizes {
			if requested[size] > 0 {
				scaled[size] = 0
			}
		}
		return scaled
	}
	if targetKg.GreaterThanOrEqual(totalKg) {
		for size, qty := range requested {
			if qty > 0 {
				scaled[size] = qty
			}
		}
		return scaled
	}

	ratio := targetKg.Div(totalKg)
	usedKg := decimal.Zero
	for _, size := range models.JarSizes {
		qty := requested[size]
		if qty <= 0 {
			continue
		}
		keep := int(ratio.Mul(decimal.NewFromInt(int64(qty))).IntPart())
		scaled[size] = keep
		usedKg = usedKg.Add(size.KgPerJar().Mul(decimal.NewFromInt(int64(keep))))
	}

	// Top up one jar at a time, each size exhausted before the next.
	for _, size := range models.JarSizes {
		for scaled[size] < requested[size] {
			next := usedKg.Add(size.KgPerJar())
			if next.GreaterThan(targetKg) {
				break
			}
			scaled[size]++
			usedKg = next
		}
	}

	return scaled
}

// CratesNeeded converts approved jar counts to crate counts per crate size,
// rounding up per size.
func CratesNeeded(approvedJars map[models.JarSize]int) map[models.CrateSize]int {
	out := make(map[models.CrateSize]int)
	for _, size := range models.JarSizes {
		jars := approvedJars[size]
		if jars <= 0 {
			continue
		}
		crate := models.CrateFor(size)
		out[crate] += crate.CratesNeededForJars(jars)
	}
	return out
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
