package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKgPerJar(t *testing.T) {
	assert.True(t, Jar200.KgPerJar().Equal(decimal.RequireFromString("0.28")))
	assert.True(t, Jar400.KgPerJar().Equal(decimal.RequireFromString("0.56")))
	assert.True(t, Jar800.KgPerJar().Equal(decimal.NewFromInt(1)))
}

func TestCrateMath(t *testing.T) {
	assert.Equal(t, 48, Crate200.JarsPerCrate())
	assert.Equal(t, 24, Crate400.JarsPerCrate())
	assert.Equal(t, 12, Crate800.JarsPerCrate())

	// Rounds up: 49 jars need 2 crates.
	assert.Equal(t, 1, Crate200.CratesNeededForJars(48))
	assert.Equal(t, 2, Crate200.CratesNeededForJars(49))
	assert.Equal(t, 1, Crate800.CratesNeededForJars(1))

	assert.Equal(t, 96, Crate200.JarsCapacityForCrates(2))
}

func TestSizeMappings(t *testing.T) {
	assert.Equal(t, Crate400, CrateFor(Jar400))
	assert.Equal(t, Label800, LabelFor(Jar800))
	assert.Equal(t, Jar200, JarFor(Label200))
}

func TestFlavorValid(t *testing.T) {
	assert.True(t, FlavorAcacia.Valid())
	assert.False(t, Flavor("CLOVER").Valid())
}

func TestOrderTotals(t *testing.T) {
	order := Order{
		OrderNumber: 1,
		Flavor:      FlavorLinden,
		JarQuantities: map[JarSize]int{
			Jar200: 10,
			Jar400: 5,
			Jar800: 2,
		},
	}

	assert.Equal(t, 17, order.TotalJars())
	// 10*0.28 + 5*0.56 + 2*1 = 7.6
	assert.True(t, order.TotalKg().Equal(decimal.RequireFromString("7.6")))
}

func TestOrderTotalsIgnoreNonPositive(t *testing.T) {
	order := Order{
		JarQuantities: map[JarSize]int{
			Jar200: -3,
			Jar800: 0,
		},
	}

	assert.Equal(t, 0, order.TotalJars())
	assert.True(t, order.TotalKg().IsZero())
}
