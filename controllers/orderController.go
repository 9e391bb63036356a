package controllers

import (
	"net/http"

	"donutshop/checkout"
	"donutshop/models"
	"donutshop/utils"
)

// Checkout places an order for the user's current cart. A clear failure
// after a created order is reported as 207: the order exists but the cart
// could not be emptied, so the client must not resubmit blindly.
func Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	created, err := checkouts.Submit(r.Context(), user.ID, form)
	if err != nil {
		if created.ID != "" {
			utils.SendJSONResponse(w, http.StatusMultiStatus, map[string]interface{}{
				"order":   created,
				"warning": "order created but cart could not be cleared: " + err.Error(),
			})
			return
		}
		handleFault(w, err)
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, created)
}

func GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := orders.LoadForBuyer(r.Context(), user.ID)
	if err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, list)
}

func GetSellerOrders(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	list, err := orders.LoadForSeller(r.Context(), seller.ID)
	if err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, list)
}

func GetOrderById(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	if orderID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	ord, err := orders.GetByID(r.Context(), orderID)
	if err != nil {
		handleFault(w, err)
		return
	}
	if ord.UserID != user.ID && ord.SellerID != user.ID {
		utils.HandleError(w, http.StatusForbidden, "Order belongs to another user")
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, ord)
}

// UpdateOrderStatus moves an order along the status progression. Only the
// selling side drives status changes.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	if orderID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ord, err := orders.GetByID(r.Context(), orderID)
	if err != nil {
		handleFault(w, err)
		return
	}
	if ord.SellerID != seller.ID {
		utils.HandleError(w, http.StatusForbidden, "Order belongs to another seller")
		return
	}

	if err := orders.UpdateStatus(r.Context(), orderID, models.OrderStatus(req.Status)); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Status updated",
	})
}
