package allocation

import (
	"testing"

	"honey-fulfillment/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amplePackaging() PackagingSnapshot {
	return PackagingSnapshot{
		Jars: map[models.JarSize]int{
			models.Jar200: 10000, models.Jar400: 10000, models.Jar800: 10000,
		},
		Labels: map[models.JarSize]int{
			models.Jar200: 10000, models.Jar400: 10000, models.Jar800: 10000,
		},
		Crates: map[models.CrateSize]int{
			models.Crate200: 1000, models.Crate400: 1000, models.Crate800: 1000,
		},
	}
}

func TestDeliverableKgFullRequest(t *testing.T) {
	order := models.Order{
		Flavor: models.FlavorAcacia,
		JarQuantities: map[models.JarSize]int{
			models.Jar200: 10, // 2.8 kg
			models.Jar800: 2,  // 2 kg
		},
	}

	got := DeliverableKg(order, kg("100"), amplePackaging())
	assert.True(t, got.Equal(kg("4.8")))
}

func TestDeliverableKgHoneyBound(t *testing.T) {
	order := models.Order{
		Flavor:        models.FlavorAcacia,
		JarQuantities: map[models.JarSize]int{models.Jar200: 100}, // 28 kg
	}

	got := DeliverableKg(order, kg("14"), amplePackaging())
	assert.True(t, got.Equal(kg("14")))
}

func TestDeliverableKgZeroWhenNoJars(t *testing.T) {
	order := models.Order{
		Flavor:        models.FlavorAcacia,
		JarQuantities: map[models.JarSize]int{models.Jar400: 10},
	}

	snapshot := amplePackaging()
	snapshot.Jars[models.Jar400] = 0

	got := DeliverableKg(order, kg("100"), snapshot)
	assert.True(t, got.IsZero())
}

func TestPackagingKgCrateBound(t *testing.T) {
	requested := map[models.JarSize]int{models.Jar800: 30}

	snapshot := amplePackaging()
	snapshot.Crates[models.Crate800] = 2 // room for 24 jars

	got := PackagingKg(requested, snapshot)
	assert.True(t, got.Equal(kg("24")))
}

func TestPackagingKgLabelBound(t *testing.T) {
	requested := map[models.JarSize]int{models.Jar200: 50}

	snapshot := amplePackaging()
	snapshot.Labels[models.Jar200] = 20

	got := PackagingKg(requested, snapshot)
	// 20 * 0.28
	assert.True(t, got.Equal(kg("5.6")))
}

func TestScaleJarQuantitiesExactHalf(t *testing.T) {
	requested := map[models.JarSize]int{models.Jar200: 100} // 28 kg

	scaled := ScaleJarQuantities(requested, kg("14"))
	assert.Equal(t, 50, scaled[models.Jar200])
}

func TestScaleJarQuantitiesTopUp(t *testing.T) {
	// 10 + 10 jars = 2.8 + 5.6 = 8.4 kg requested, 5 kg target.
	// Flooring keeps 5 of each (4.2 kg); the top-up adds two more JAR200
	// (4.76 kg) and then nothing else fits under 5 kg.
	requested := map[models.JarSize]int{
		models.Jar200: 10,
		models.Jar400: 10,
	}

	scaled := ScaleJarQuantities(requested, kg("5"))

	usedKg := decimal.Zero
	for size, qty := range scaled {
		assert.LessOrEqual(t, qty, requested[size])
		usedKg = usedKg.Add(size.KgPerJar().Mul(decimal.NewFromInt(int64(qty))))
	}
	assert.True(t, usedKg.LessThanOrEqual(kg("5")))

	// No single jar of any size still fits under the target.
	for _, size := range models.JarSizes {
		if scaled[size] < requested[size] {
			assert.True(t, usedKg.Add(size.KgPerJar()).GreaterThan(kg("5")))
		}
	}
}

func TestScaleJarQuantitiesFillsSmallestSizesFirst(t *testing.T) {
	// 10 of every size = 18.4 kg; target 10.856 floors to 5 of each
	// (9.2 kg) with a 1.656 kg gap. The gap goes to JAR200 until its
	// requested cap, not one jar per size in rotation.
	requested := map[models.JarSize]int{
		models.Jar200: 10,
		models.Jar400: 10,
		models.Jar800: 10,
	}

	scaled := ScaleJarQuantities(requested, kg("10.856"))

	assert.Equal(t, 10, scaled[models.Jar200])
	assert.Equal(t, 5, scaled[models.Jar400])
	assert.Equal(t, 5, scaled[models.Jar800])
}

func TestScaleJarQuantitiesTargetCoversAll(t *testing.T) {
	requested := map[models.JarSize]int{models.Jar800: 3}

	scaled := ScaleJarQuantities(requested, kg("3"))
	assert.Equal(t, 3, scaled[models.Jar800])
}

func TestScaleJarQuantitiesZeroTarget(t *testing.T) {
	requested := map[models.JarSize]int{models.Jar200: 5}

	scaled := ScaleJarQuantities(requested, decimal.Zero)
	assert.Equal(t, 0, scaled[models.Jar200])
}

func TestCratesNeeded(t *testing.T) {
	crates := CratesNeeded(map[models.JarSize]int{
		models.Jar200: 49, // 48 per crate → 2
		models.Jar400: 24, // exactly one
		models.Jar800: 1,  // rounds up to one
	})

	assert.Equal(t, 2, crates[models.Crate200])
	assert.Equal(t, 1, crates[models.Crate400])
	assert.Equal(t, 1, crates[models.Crate800])
}

func TestCratesNeededSkipsZero(t *testing.T) {
	crates := CratesNeeded(map[models.JarSize]int{models.Jar200: 0})
	assert.Empty(t, crates)
}
