package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusProgression(t *testing.T) {
	steps := []OrderStatus{
		StatusPending,
		StatusConfirmed,
		StatusPreparing,
		StatusReadyForPickup,
		StatusDelivered,
	}
	for i := 0; i < len(steps)-1; i++ {
		assert.True(t, steps[i].CanTransitionTo(steps[i+1]),
			"%s -> %s should be legal", steps[i], steps[i+1])
	}
}

func TestStatusRejectsBackwardAndSkips(t *testing.T) {
	assert.False(t, StatusDelivered.CanTransitionTo(StatusPending))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusPending.CanTransitionTo(StatusPreparing))
	assert.False(t, StatusPending.CanTransitionTo(StatusDelivered))
}

func TestStatusCancellation(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReadyForPickup} {
		assert.True(t, s.CanTransitionTo(StatusCancelled), "%s should be cancellable", s)
	}
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPending))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusReadyForPickup.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p1", Quantity: 3, Price: 2.50},
		{ProductID: "p2", Quantity: 2, Price: 1.00},
	}
	assert.InDelta(t, 9.50, OrderTotal(items), 1e-9)
	assert.InDelta(t, 0, OrderTotal(nil), 1e-9)
}

func TestCartTotalCountsEachLine(t *testing.T) {
	// Two lines for the same product contribute independently.
	items := []CartItem{
		{ProductID: "p1", ProductPrice: 3.00, Quantity: 2},
		{ProductID: "p1", ProductPrice: 3.00, Quantity: 1},
	}
	assert.InDelta(t, 9.00, CartTotal(items), 1e-9)
}
