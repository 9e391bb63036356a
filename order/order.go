// Package order converts cart snapshots into immutable orders and exposes
// order history and status progression.
package order

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"donutshop/faults"
	"donutshop/models"
	"donutshop/store"
	"donutshop/stream"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

type ListState struct {
	Phase  Phase          `json:"phase"`
	Orders []models.Order `json:"orders"`
	Err    string         `json:"error,omitempty"`
}

type CreationState struct {
	Phase   Phase  `json:"phase"`
	OrderID string `json:"orderId,omitempty"`
	Err     string `json:"error,omitempty"`
}

type Manager struct {
	store        store.Store
	buyerOrders  *stream.State[ListState]
	sellerOrders *stream.State[ListState]
	creation     *stream.State[CreationState]
	now          func() time.Time
}

func NewManager(st store.Store) *Manager {
	return &Manager{
		store:        st,
		buyerOrders:  stream.New(ListState{Phase: PhaseIdle}),
		sellerOrders: stream.New(ListState{Phase: PhaseIdle}),
		creation:     stream.New(CreationState{Phase: PhaseIdle}),
		now:          time.Now,
	}
}

func (m *Manager) BuyerOrders() *stream.State[ListState] { return m.buyerOrders }

func (m *Manager) SellerOrders() *stream.State[ListState] { return m.sellerOrders }

func (m *Manager) Creation() *stream.State[CreationState] { return m.creation }

// ResetCreation returns the creation stream to idle, e.g. after the caller
// has navigated away from a completed checkout.
func (m *Manager) ResetCreation() {
	m.creation.Set(CreationState{Phase: PhaseIdle})
}

// CreateInput carries everything Create needs. SellerID may be left empty;
// it is then taken from the first cart line.
type CreateInput struct {
	UserID          string
	SellerID        string
	Items           []models.CartItem
	DeliveryAddress string
	CustomerName    string
	CustomerPhone   string
	IdempotencyKey  string
}

// Create freezes the cart snapshot into an order with status Pending. The
// total is computed here, from the snapshot, and never again. Carts holding
// lines from more than one seller are rejected. When an idempotency key is
// supplied and an order already carries it, that order is returned instead
// of inserting a duplicate.
func (m *Manager) Create(ctx context.Context, in CreateInput) (models.Order, error) {
	const op = "order.create"
	m.creation.Set(CreationState{Phase: PhaseLoading})

	if len(in.Items) == 0 {
		return models.Order{}, m.failCreation(faults.New(faults.Validation, op, "cart is empty"))
	}

	sellerID := in.SellerID
	if sellerID == "" {
		sellerID = in.Items[0].SellerID
	}
	for _, item := range in.Items {
		if item.SellerID != sellerID {
			return models.Order{}, m.failCreation(
				faults.New(faults.Validation, op, "all items must be from the same seller"))
		}
	}

	if in.IdempotencyKey != "" {
		existing, found, err := m.findByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return models.Order{}, m.failCreation(err)
		}
		if found {
			m.creation.Set(CreationState{Phase: PhaseLoaded, OrderID: existing.ID})
			return existing, nil
		}
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.ProductPrice,
		})
	}

	ord := models.Order{
		UserID:          in.UserID,
		SellerID:        sellerID,
		Items:           items,
		TotalAmount:     models.OrderTotal(items),
		Status:          models.StatusPending,
		OrderDate:       m.now(),
		DeliveryAddress: in.DeliveryAddress,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		IdempotencyKey:  in.IdempotencyKey,
	}

	id, err := m.store.Add(ctx, store.Orders, ord)
	if err != nil {
		return models.Order{}, m.failCreation(err)
	}
	ord.ID = id

	m.creation.Set(CreationState{Phase: PhaseLoaded, OrderID: id})
	return ord, nil
}

func (m *Manager) findByIdempotencyKey(ctx context.Context, key string) (models.Order, bool, error) {
	docs, err := m.store.Query(ctx, store.Orders, "idempotencyKey", key)
	if err != nil {
		return models.Order{}, false, err
	}
	if len(docs) == 0 {
		return models.Order{}, false, nil
	}
	var ord models.Order
	if err := json.Unmarshal(docs[0], &ord); err != nil {
		return models.Order{}, false, faults.Wrap(faults.Transport, "order.create", err)
	}
	return ord, true, nil
}

// LoadForBuyer publishes the user's order history, newest first.
func (m *Manager) LoadForBuyer(ctx context.Context, userID string) ([]models.Order, error) {
	return m.load(ctx, m.buyerOrders, "userId", userID)
}

// LoadForSeller publishes the seller's incoming orders, newest first.
func (m *Manager) LoadForSeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	return m.load(ctx, m.sellerOrders, "sellerId", sellerID)
}

func (m *Manager) load(ctx context.Context, out *stream.State[ListState], field, value string) ([]models.Order, error) {
	out.Set(ListState{Phase: PhaseLoading})

	docs, err := m.store.Query(ctx, store.Orders, field, value)
	if err != nil {
		out.Set(ListState{Phase: PhaseFailed, Err: err.Error()})
		return nil, err
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		var ord models.Order
		if err := json.Unmarshal(doc, &ord); err != nil {
			wrapped := faults.Wrap(faults.Transport, "order.load", err)
			out.Set(ListState{Phase: PhaseFailed, Err: wrapped.Error()})
			return nil, wrapped
		}
		orders = append(orders, ord)
	}

	// Sorted here rather than by the store; an orderDate ordering clause
	// would demand a composite index on the remote side. Fine at this
	// scale, costs query time at a larger one.
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})

	out.Set(ListState{Phase: PhaseLoaded, Orders: orders})
	return orders, nil
}

// UpdateStatus patches the status field only, after checking the move
// against the transition table.
func (m *Manager) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	const op = "order.updateStatus"
	if !status.Valid() {
		return faults.New(faults.Validation, op, "unknown status "+string(status))
	}

	var current models.Order
	if err := m.store.Get(ctx, store.Orders, orderID, &current); err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return faults.New(faults.IllegalTransition, op,
			string(current.Status)+" -> "+string(status))
	}

	return m.store.Patch(ctx, store.Orders, orderID, "status", status)
}

// GetByID fetches a single order.
func (m *Manager) GetByID(ctx context.Context, orderID string) (models.Order, error) {
	var ord models.Order
	if err := m.store.Get(ctx, store.Orders, orderID, &ord); err != nil {
		return models.Order{}, err
	}
	return ord, nil
}

func (m *Manager) failCreation(err error) error {
	m.creation.Set(CreationState{Phase: PhaseFailed, Err: err.Error()})
	return err
}
