package controllers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"donutshop/auth"
	"donutshop/cart"
	"donutshop/catalog"
	"donutshop/checkout"
	"donutshop/faults"
	"donutshop/models"
	"donutshop/order"
	"donutshop/utils"
)

var (
	authSvc   *auth.Service
	products  *catalog.Catalog
	carts     *cart.Manager
	orders    *order.Manager
	checkouts *checkout.Orchestrator
)

// Init wires the handlers to the managers. Called once from main.
func Init(a *auth.Service, c *catalog.Catalog, cm *cart.Manager, om *order.Manager, co *checkout.Orchestrator) {
	authSvc = a
	products = c
	carts = cm
	orders = om
	checkouts = co
}

// domain is the public base URL used when building uploaded image URIs.
func domain() string {
	if d := os.Getenv("DOMAIN"); d != "" {
		return d
	}
	return "http://localhost:8000"
}

// statusFor maps a fault kind to its HTTP status.
func statusFor(err error) int {
	switch faults.KindOf(err) {
	case faults.Validation:
		return http.StatusBadRequest
	case faults.NotFound:
		return http.StatusNotFound
	case faults.IllegalTransition:
		return http.StatusConflict
	case faults.Timeout:
		return http.StatusGatewayTimeout
	case faults.Transport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func handleFault(w http.ResponseWriter, err error) {
	utils.HandleError(w, statusFor(err), err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// bearerToken pulls the session token off the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Websocket clients can't set headers; allow the query string.
		return r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// currentUser resolves the request's session, writing the error response
// itself when there is none.
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := authSvc.CurrentSession(r.Context(), bearerToken(r))
	if err != nil {
		utils.HandleError(w, http.StatusUnauthorized, "Not signed in")
		return models.User{}, false
	}
	return user, true
}

// requireSeller is currentUser plus a role gate.
func requireSeller(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return models.User{}, false
	}
	if user.Role != models.RoleSeller {
		utils.HandleError(w, http.StatusForbidden, "Seller account required")
		return models.User{}, false
	}
	return user, true
}
