package allocation

import (
	"testing"

	"honey-fulfillment/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kg(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewPlanValidation(t *testing.T) {
	_, err := NewPlan(1, nil)
	assert.ErrorIs(t, err, ErrEmptyRequest)

	_, err = NewPlan(1, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("-1"),
	})
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestNewPlanNormalizesScale(t *testing.T) {
	plan, err := NewPlan(1, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("10.00049"),
	})
	require.NoError(t, err)

	assert.True(t, plan.Requested(models.FlavorAcacia).Equal(kg("10")))
	assert.Equal(t, StatusDraft, plan.Status())
}

func TestAllocateToWarehouse(t *testing.T) {
	plan, err := NewPlan(42, map[models.Flavor]decimal.Decimal{
		models.FlavorLinden: kg("10"),
	})
	require.NoError(t, err)

	require.NoError(t, plan.AllocateToWarehouse(models.FlavorLinden, kg("4"), "WH-A"))
	assert.Equal(t, StatusPartiallyAllocated, plan.Status())
	assert.True(t, plan.Remaining(models.FlavorLinden).Equal(kg("6")))

	require.NoError(t, plan.AllocateToWarehouse(models.FlavorLinden, kg("6"), "WH-B"))
	assert.Equal(t, StatusFullyAllocated, plan.Status())
	assert.True(t, plan.IsFullyAllocated())
	assert.True(t, plan.Remaining(models.FlavorLinden).IsZero())

	lines := plan.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "WH-A", lines[0].WarehouseKey)
	assert.Equal(t, "WH-B", lines[1].WarehouseKey)
}

func TestAllocateOverCapacityLeavesPlanUnchanged(t *testing.T) {
	plan, err := NewPlan(7, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("5"),
	})
	require.NoError(t, err)
	require.NoError(t, plan.AllocateToWarehouse(models.FlavorAcacia, kg("3"), "WH-A"))

	err = plan.AllocateToWarehouse(models.FlavorAcacia, kg("2.001"), "WH-B")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// Nothing moved.
	assert.True(t, plan.Allocated(models.FlavorAcacia).Equal(kg("3")))
	assert.Len(t, plan.Lines(), 1)
	assert.Equal(t, StatusPartiallyAllocated, plan.Status())
}

func TestAllocateRejectsNonPositive(t *testing.T) {
	plan, err := NewPlan(7, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("5"),
	})
	require.NoError(t, err)

	assert.Error(t, plan.AllocateToWarehouse(models.FlavorAcacia, decimal.Zero, "WH-A"))
	assert.Error(t, plan.AllocateToWarehouse(models.FlavorAcacia, kg("-1"), "WH-A"))
	assert.Len(t, plan.Lines(), 0)
}

func TestRejectedIsSticky(t *testing.T) {
	plan, err := NewPlan(9, map[models.Flavor]decimal.Decimal{
		models.FlavorRapeseed: kg("2"),
	})
	require.NoError(t, err)

	plan.Reject()
	assert.Equal(t, StatusRejected, plan.Status())

	err = plan.AllocateToWarehouse(models.FlavorRapeseed, kg("1"), "WH-A")
	assert.ErrorIs(t, err, ErrPlanRejected)
	assert.Equal(t, StatusRejected, plan.Status())
}

func TestGroupings(t *testing.T) {
	plan, err := NewPlan(3, map[models.Flavor]decimal.Decimal{
		models.FlavorAcacia: kg("4"),
		models.FlavorLinden: kg("2"),
	})
	require.NoError(t, err)

	require.NoError(t, plan.AllocateToWarehouse(models.FlavorAcacia, kg("3"), "WH-A"))
	require.NoError(t, plan.AllocateToWarehouse(models.FlavorAcacia, kg("1"), "WH-B"))
	require.NoError(t, plan.AllocateToWarehouse(models.FlavorLinden, kg("2"), "WH-A"))

	byWarehouse := plan.GroupByWarehouse()
	assert.Len(t, byWarehouse["WH-A"], 2)
	assert.Len(t, byWarehouse["WH-B"], 1)

	byFlavor := plan.GroupByFlavor()
	assert.Len(t, byFlavor[models.FlavorAcacia], 2)
	assert.Len(t, byFlavor[models.FlavorLinden], 1)

	assert.True(t, plan.TotalAllocated().Equal(kg("6")))
	assert.True(t, plan.TotalRequested().Equal(kg("6")))
}
