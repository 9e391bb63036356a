package models

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category"`
	IsAvailable bool      `json:"isAvailable"`
	SellerID    string    `json:"sellerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CartItem is one cart line. Adding the same product twice creates two
// lines; lines are never merged. Name, price and image are copied from the
// product at add time so later catalog edits don't touch the cart.
type CartItem struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"productId"`
	ProductName     string  `json:"productName"`
	ProductPrice    float64 `json:"productPrice"`
	ProductImageURL string  `json:"productImageUrl,omitempty"`
	Quantity        int     `json:"quantity"`
	UserID          string  `json:"userId"`
	SellerID        string  `json:"sellerId"`
}

// LineTotal returns the cart line's contribution to the cart total.
func (ci CartItem) LineTotal() float64 {
	return ci.ProductPrice * float64(ci.Quantity)
}

// OrderItem is a frozen snapshot of a cart line. It never re-reads the
// product record after the order is created.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

func (oi OrderItem) LineTotal() float64 {
	return oi.Price * float64(oi.Quantity)
}

// Order is immutable after creation except for Status.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	SellerID        string      `json:"sellerId"`
	Items           []OrderItem `json:"items"`
	TotalAmount     float64     `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
	OrderDate       time.Time   `json:"orderDate"`
	DeliveryAddress string      `json:"deliveryAddress"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone"`
	IdempotencyKey  string      `json:"idempotencyKey,omitempty"`
}

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// next maps each status to its single legal successor in the linear flow.
var next = map[OrderStatus]OrderStatus{
	StatusPending:        StatusConfirmed,
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusReadyForPickup,
	StatusReadyForPickup: StatusDelivered,
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to target is legal: only
// the immediate successor in the linear progression, or Cancelled from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return next[s] == target
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing,
		StatusReadyForPickup, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderTotal sums price*quantity over the item snapshot. The stored
// TotalAmount is computed once at creation and never recomputed.
func OrderTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// CartTotal sums the line totals of a set of cart lines.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
