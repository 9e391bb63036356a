package controllers

import (
	"net/http"

	"donutshop/models"
	"donutshop/utils"
)

func Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleBuyer
	}

	user, token, err := authSvc.SignUp(r.Context(), req.Email, req.Password, req.Name, role)
	if err != nil {
		handleFault(w, err)
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := authSvc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		// Credential failures all read the same to the client.
		utils.HandleError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		authSvc.SignOut(token)
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Signed out",
	})
}

func Session(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, user)
}
