// Package checkout runs the cart-to-order sequence: validate the delivery
// form, create the order, clear the cart. The sequence is not transactional;
// the idempotency key keeps a retry from minting a second order.
package checkout

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"donutshop/cart"
	"donutshop/faults"
	"donutshop/models"
	"donutshop/order"
)

type Form struct {
	DeliveryAddress string `json:"deliveryAddress"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	// IdempotencyKey is optional; when blank a key is derived from the
	// cart lines, so resubmitting the same cart replays the same order.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type Orchestrator struct {
	carts  *cart.Manager
	orders *order.Manager
}

func New(carts *cart.Manager, orders *order.Manager) *Orchestrator {
	return &Orchestrator{carts: carts, orders: orders}
}

// Submit places the order for the user's current cart. On success the cart
// is cleared. If the clear fails after the order was created, the created
// order is returned together with the fault: the order exists, the cart
// still holds its lines, and the caller must surface that.
func (o *Orchestrator) Submit(ctx context.Context, userID string, form Form) (models.Order, error) {
	const op = "checkout.submit"
	if strings.TrimSpace(form.DeliveryAddress) == "" ||
		strings.TrimSpace(form.CustomerName) == "" ||
		strings.TrimSpace(form.CustomerPhone) == "" {
		return models.Order{}, faults.New(faults.Validation, op,
			"delivery address, customer name and phone are required")
	}

	items, err := o.carts.Load(ctx, userID)
	if err != nil {
		return models.Order{}, err
	}
	if len(items) == 0 {
		return models.Order{}, faults.New(faults.Validation, op, "cart is empty")
	}

	key := form.IdempotencyKey
	if key == "" {
		key = deriveKey(userID, items)
	}

	created, err := o.orders.Create(ctx, order.CreateInput{
		UserID:          userID,
		Items:           items,
		DeliveryAddress: form.DeliveryAddress,
		CustomerName:    form.CustomerName,
		CustomerPhone:   form.CustomerPhone,
		IdempotencyKey:  key,
	})
	if err != nil {
		return models.Order{}, err
	}

	if err := o.carts.Clear(ctx, userID); err != nil {
		return created, err
	}
	return created, nil
}

// deriveKey is stable for a given set of cart lines: uuid v5 over the
// sorted line ids.
func deriveKey(userID string, items []models.CartItem) string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	sort.Strings(ids)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":"+strings.Join(ids, ","))).String()
}
