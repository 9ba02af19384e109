package allocation

import (
	"testing"

	"honey-fulfillment/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStock() []WarehouseStock {
	return []WarehouseStock{
		{Key: "WH-NORTH", Available: map[models.Flavor]decimal.Decimal{
			models.FlavorAcacia: kg("6"),
			models.FlavorLinden: kg("2"),
		}},
		{Key: "WH-SOUTH", Available: map[models.Flavor]decimal.Decimal{
			models.FlavorAcacia: kg("10"),
			models.FlavorLinden: kg("5"),
		}},
	}
}

func TestPlanGreedySpansWarehouses(t *testing.T) {
	pl := NewPlanner()

	plan, err := pl.PlanGreedy(1, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("8"),
	}, testStock())
	require.NoError(t, err)

	require.True(t, plan.IsFullyAllocated())
	lines := plan.Lines()
	require.Len(t, lines, 2)

	// First warehouse drained before the second is touched.
	assert.Equal(t, "WH-NORTH", lines[0].WarehouseKey)
	assert.True(t, lines[0].QuantityKg.Equal(kg("6")))
	assert.Equal(t, "WH-SOUTH", lines[1].WarehouseKey)
	assert.True(t, lines[1].QuantityKg.Equal(kg("2")))
}

func TestPlanGreedyUnderAllocates(t *testing.T) {
	pl := NewPlanner()

	plan, err := pl.PlanGreedy(2, map[models.Flavor]decimal.Decimal{
		models.FlavorLinden: kg("20"),
	}, testStock())
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyAllocated, plan.Status())
	assert.True(t, plan.TotalAllocated().Equal(kg("7")))
	assert.True(t, plan.Remaining(models.FlavorLinden).Equal(kg("13")))
}

func TestPlanGreedyDoesNotMutateCallerStock(t *testing.T) {
	pl := NewPlanner()
	stock := testStock()

	_, err := pl.PlanGreedy(3, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("8"),
	}, stock)
	require.NoError(t, err)

	assert.True(t, stock[0].Available[models.FlavorAcacia].Equal(kg("6")))
	assert.True(t, stock[1].Available[models.FlavorAcacia].Equal(kg("10")))
}

func TestCanFulfillAll(t *testing.T) {
	pl := NewPlanner()

	assert.True(t, pl.CanFulfillAll(map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("16"),
		models.FlavorLinden: kg("7"),
	}, testStock()))

	assert.False(t, pl.CanFulfillAll(map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("16.001"),
	}, testStock()))

	// Unknown flavor with zero stock.
	assert.False(t, pl.CanFulfillAll(map[models.Flavor]decimal.Decimal{
		models.FlavorSunflower: kg("1"),
	}, testStock()))
}

func TestPlanAllOrNothing(t *testing.T) {
	pl := NewPlanner()

	plan, err := pl.PlanAllOrNothing(4, map[models.Flavor]decimal.Decimal{
		models.FlavorLinden: kg("100"),
	}, testStock())
	require.NoError(t, err)
	assert.Nil(t, plan)

	plan, err = pl.PlanAllOrNothing(5, map[models.Flavor]decimal.Decimal{
		models.FlavorLinden: kg("7"),
	}, testStock())
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.True(t, plan.IsFullyAllocated())
}
