// Package cart owns the per-user cart lines and the derived running total.
package cart

import (
	"context"
	"encoding/json"
	"sync"

	"donutshop/faults"
	"donutshop/models"
	"donutshop/store"
	"donutshop/stream"
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// State is what subscribers render: exactly one of loading, loaded (an
// empty Items slice is "loaded but empty") or failed with a reason.
type State struct {
	Phase Phase             `json:"phase"`
	Items []models.CartItem `json:"items"`
	Total float64           `json:"total"`
	Err   string            `json:"error,omitempty"`
}

// Manager publishes one state stream per user, so a subscriber only ever
// sees its own cart.
type Manager struct {
	store store.Store

	mu     sync.Mutex
	states map[string]*stream.State[State]
}

func NewManager(st store.Store) *Manager {
	return &Manager{
		store:  st,
		states: make(map[string]*stream.State[State]),
	}
}

// StateFor returns the user's published cart state, created on first use.
func (m *Manager) StateFor(userID string) *stream.State[State] {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	if !ok {
		s = stream.New(State{Phase: PhaseLoading})
		m.states[userID] = s
	}
	return s
}

// Subscribe is a convenience over StateFor(userID).Subscribe.
func (m *Manager) Subscribe(ctx context.Context, userID string) <-chan State {
	return m.StateFor(userID).Subscribe(ctx)
}

func (m *Manager) fail(userID string, err error) error {
	m.StateFor(userID).Set(State{Phase: PhaseFailed, Err: err.Error()})
	return err
}

// Load fetches every cart line for the user and publishes the items with
// their total. Failures publish a failed state; they are never swallowed.
func (m *Manager) Load(ctx context.Context, userID string) ([]models.CartItem, error) {
	m.StateFor(userID).Set(State{Phase: PhaseLoading})

	docs, err := m.store.Query(ctx, store.CartItems, "userId", userID)
	if err != nil {
		return nil, m.fail(userID, err)
	}

	items := make([]models.CartItem, 0, len(docs))
	for _, doc := range docs {
		var item models.CartItem
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, m.fail(userID, faults.Wrap(faults.Transport, "cart.load", err))
		}
		items = append(items, item)
	}

	m.StateFor(userID).Set(State{Phase: PhaseLoaded, Items: items, Total: models.CartTotal(items)})
	return items, nil
}

// Add appends a new line built from the product snapshot, then reloads.
// An existing line for the same product is left alone; re-adding a product
// always creates another line. Add and reload are two round trips, so a
// concurrent reader can observe the old total in between.
func (m *Manager) Add(ctx context.Context, product models.Product, userID string, quantity int) error {
	const op = "cart.add"
	if quantity < 1 {
		// Rejected before any remote call; the published state is untouched.
		return faults.New(faults.Validation, op, "quantity must be at least 1")
	}

	item := models.CartItem{
		ProductID:       product.ID,
		ProductName:     product.Name,
		ProductPrice:    product.Price,
		ProductImageURL: product.ImageURL,
		Quantity:        quantity,
		UserID:          userID,
		SellerID:        product.SellerID,
	}
	if _, err := m.store.Add(ctx, store.CartItems, item); err != nil {
		return m.fail(userID, err)
	}

	_, err := m.Load(ctx, userID)
	return err
}

// UpdateQuantity persists the new quantity and reloads. A quantity of zero
// or less removes the line instead; callers don't have to branch on it.
func (m *Manager) UpdateQuantity(ctx context.Context, item models.CartItem, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, item.ID, item.UserID)
	}

	item.Quantity = quantity
	if err := m.store.Set(ctx, store.CartItems, item.ID, item); err != nil {
		return m.fail(item.UserID, err)
	}

	_, err := m.Load(ctx, item.UserID)
	return err
}

// Item fetches a single cart line by id.
func (m *Manager) Item(ctx context.Context, itemID string) (models.CartItem, error) {
	var item models.CartItem
	if err := m.store.Get(ctx, store.CartItems, itemID, &item); err != nil {
		return models.CartItem{}, err
	}
	return item, nil
}

// Remove deletes a single line and reloads.
func (m *Manager) Remove(ctx context.Context, itemID, userID string) error {
	if err := m.store.Delete(ctx, store.CartItems, itemID); err != nil {
		return m.fail(userID, err)
	}

	_, err := m.Load(ctx, userID)
	return err
}

// Clear deletes every line for the user as one batched unit and publishes
// the empty cart immediately, without waiting for a reload.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	docs, err := m.store.Query(ctx, store.CartItems, "userId", userID)
	if err != nil {
		return m.fail(userID, err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		var item models.CartItem
		if err := json.Unmarshal(doc, &item); err != nil {
			return m.fail(userID, faults.Wrap(faults.Transport, "cart.clear", err))
		}
		ids = append(ids, item.ID)
	}

	if err := m.store.BatchDelete(ctx, store.CartItems, ids); err != nil {
		return m.fail(userID, err)
	}

	m.StateFor(userID).Set(State{Phase: PhaseLoaded, Items: []models.CartItem{}, Total: 0})
	return nil
}
