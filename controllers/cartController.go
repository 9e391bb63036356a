package controllers

import (
	"net/http"

	"donutshop/utils"
)

func GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if _, err := carts.Load(r.Context(), user.ID); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, carts.StateFor(user.ID).Get())
}

func AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := products.ByID(r.Context(), req.ProductID)
	if err != nil {
		handleFault(w, err)
		return
	}
	if !product.IsAvailable {
		utils.HandleError(w, http.StatusBadRequest, "Product is not available")
		return
	}

	if err := carts.Add(r.Context(), product, user.ID, req.Quantity); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusCreated, carts.StateFor(user.ID).Get())
}

func UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("id")
	if itemID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Cart item ID is required")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := carts.Item(r.Context(), itemID)
	if err != nil {
		handleFault(w, err)
		return
	}
	if item.UserID != user.ID {
		utils.HandleError(w, http.StatusForbidden, "Cart item belongs to another user")
		return
	}

	if err := carts.UpdateQuantity(r.Context(), item, req.Quantity); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, carts.StateFor(user.ID).Get())
}

func RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("id")
	if itemID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Cart item ID is required")
		return
	}

	item, err := carts.Item(r.Context(), itemID)
	if err != nil {
		handleFault(w, err)
		return
	}
	if item.UserID != user.ID {
		utils.HandleError(w, http.StatusForbidden, "Cart item belongs to another user")
		return
	}

	if err := carts.Remove(r.Context(), itemID, user.ID); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, carts.StateFor(user.ID).Get())
}

func ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := carts.Clear(r.Context(), user.ID); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, carts.StateFor(user.ID).Get())
}
