package service

import (
	"testing"

	"honey-fulfillment/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	s := &OrderService{}

	order, err := s.validateRequest(&PlaceOrderRequest{
		OrderNumber: 42,
		Flavor:      "LINDEN",
		JarQuantities: map[string]int{
			"JAR200": 10,
			"JAR800": 2,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.OrderNumber)
	assert.Equal(t, models.FlavorLinden, order.Flavor)
	assert.Equal(t, 10, order.JarQuantities[models.Jar200])
	assert.Equal(t, 2, order.JarQuantities[models.Jar800])
}

func TestValidateRequestUnknownFlavor(t *testing.T) {
	s := &OrderService{}

	_, err := s.validateRequest(&PlaceOrderRequest{
		OrderNumber:   1,
		Flavor:        "CLOVER",
		JarQuantities: map[string]int{"JAR200": 1},
	})

	var invalid *ErrInvalidOrder
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Detail, "CLOVER")
}

func TestValidateRequestUnknownJarSize(t *testing.T) {
	s := &OrderService{}

	_, err := s.validateRequest(&PlaceOrderRequest{
		OrderNumber:   1,
		Flavor:        "ACACIA",
		JarQuantities: map[string]int{"JAR1600": 1},
	})

	var invalid *ErrInvalidOrder
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Detail, "JAR1600")
}

func TestValidateRequestNegativeQuantity(t *testing.T) {
	s := &OrderService{}

	_, err := s.validateRequest(&PlaceOrderRequest{
		OrderNumber:   1,
		Flavor:        "ACACIA",
		JarQuantities: map[string]int{"JAR200": -5},
	})

	var invalid *ErrInvalidOrder
	require.ErrorAs(t, err, &invalid)
}

func TestJarCountsByName(t *testing.T) {
	assert.Nil(t, jarCountsByName(nil))

	out := jarCountsByName(map[models.JarSize]int{
		models.Jar200: 7,
		models.Jar400: 0,
	})
	assert.Equal(t, map[string]int{"JAR200": 7, "JAR400": 0}, out)
}

func TestPlaceOrder(t *testing.T) {
	// Requires database, Redis and Kafka; covered by the orchestrator tests
	// plus integration environments.
	t.Skip("Integration test - requires database, Redis and Kafka")
}
