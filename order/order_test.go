package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donutshop/faults"
	"donutshop/models"
	"donutshop/store"
)

func twoLineCart(userID string) []models.CartItem {
	return []models.CartItem{
		{ID: "c1", ProductID: "p1", ProductName: "Glazed", ProductPrice: 2.50, Quantity: 3, UserID: userID, SellerID: "s1"},
		{ID: "c2", ProductID: "p2", ProductName: "Holes", ProductPrice: 1.00, Quantity: 2, UserID: userID, SellerID: "s1"},
	}
}

func TestCreateFreezesSnapshot(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	ord, err := m.Create(ctx, CreateInput{UserID: "u1", Items: twoLineCart("u1"), DeliveryAddress: "1 Main St"})
	require.NoError(t, err)

	assert.NotEmpty(t, ord.ID)
	assert.Equal(t, "u1", ord.UserID)
	assert.Equal(t, "s1", ord.SellerID, "seller taken from the first line")
	assert.Equal(t, models.StatusPending, ord.Status)
	assert.InDelta(t, 2.50*3+1.00*2, ord.TotalAmount, 1e-9)
	require.Len(t, ord.Items, 2)
	assert.InDelta(t, 2.50, ord.Items[0].Price, 1e-9)

	state := m.Creation().Get()
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.Equal(t, ord.ID, state.OrderID)

	// The stored copy carries the same frozen total.
	got, err := m.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.InDelta(t, ord.TotalAmount, got.TotalAmount, 1e-9)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	m := NewManager(store.NewMemory())

	_, err := m.Create(context.Background(), CreateInput{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
	assert.Equal(t, PhaseFailed, m.Creation().Get().Phase)
}

func TestCreateRejectsMixedSellers(t *testing.T) {
	m := NewManager(store.NewMemory())
	items := twoLineCart("u1")
	items[1].SellerID = "s2"

	_, err := m.Create(context.Background(), CreateInput{UserID: "u1", Items: items})
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
}

func TestCreateIsIdempotentPerKey(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()
	in := CreateInput{UserID: "u1", Items: twoLineCart("u1"), IdempotencyKey: "key-1"}

	first, err := m.Create(ctx, in)
	require.NoError(t, err)

	second, err := m.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "replay must return the existing order")

	orders, err := m.LoadForBuyer(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestLoadForBuyerSortsNewestFirst(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{0, 2 * time.Hour, time.Hour} {
		when := base.Add(offset)
		m.now = func() time.Time { return when }
		_, err := m.Create(ctx, CreateInput{UserID: "u1", Items: twoLineCart("u1")})
		require.NoError(t, err, "order %d", i)
	}

	orders, err := m.LoadForBuyer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 0; i < len(orders)-1; i++ {
		assert.False(t, orders[i].OrderDate.Before(orders[i+1].OrderDate),
			"orders must be newest first")
	}

	state := m.BuyerOrders().Get()
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.Len(t, state.Orders, 3)
}

func TestLoadForSellerFiltersBySeller(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{UserID: "u1", Items: twoLineCart("u1")})
	require.NoError(t, err)

	other := twoLineCart("u2")
	other[0].SellerID = "s2"
	other[1].SellerID = "s2"
	_, err = m.Create(ctx, CreateInput{UserID: "u2", Items: other})
	require.NoError(t, err)

	orders, err := m.LoadForSeller(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "u1", orders[0].UserID)
}

func TestUpdateStatusWalksTheChain(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	ord, err := m.Create(ctx, CreateInput{UserID: "u1", Items: twoLineCart("u1")})
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusReadyForPickup,
		models.StatusDelivered,
	} {
		require.NoError(t, m.UpdateStatus(ctx, ord.ID, next))
		got, err := m.GetByID(ctx, ord.ID)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}
}

func TestUpdateStatusRejectsIllegalMoves(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	ord, err := m.Create(ctx, CreateInput{UserID: "u1", Items: twoLineCart("u1")})
	require.NoError(t, err)

	// Skipping ahead is illegal.
	err = m.UpdateStatus(ctx, ord.ID, models.StatusDelivered)
	require.Error(t, err)
	assert.True(t, faults.IsIllegalTransition(err))

	// Going backward from a later status is too.
	require.NoError(t, m.UpdateStatus(ctx, ord.ID, models.StatusConfirmed))
	err = m.UpdateStatus(ctx, ord.ID, models.StatusPending)
	require.Error(t, err)
	assert.True(t, faults.IsIllegalTransition(err))

	// The stored status is untouched by rejected moves.
	got, err := m.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	m := NewManager(store.NewMemory())
	err := m.UpdateStatus(context.Background(), "o1", models.OrderStatus("SHIPPED"))
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
}

func TestUpdateStatusMissingOrderIsNotFound(t *testing.T) {
	m := NewManager(store.NewMemory())
	err := m.UpdateStatus(context.Background(), "missing", models.StatusConfirmed)
	assert.True(t, faults.IsNotFound(err))
}

func TestResetCreation(t *testing.T) {
	m := NewManager(store.NewMemory())

	_, err := m.Create(context.Background(), CreateInput{UserID: "u1", Items: twoLineCart("u1")})
	require.NoError(t, err)
	require.Equal(t, PhaseLoaded, m.Creation().Get().Phase)

	m.ResetCreation()
	assert.Equal(t, PhaseIdle, m.Creation().Get().Phase)
	assert.Empty(t, m.Creation().Get().OrderID)
}
