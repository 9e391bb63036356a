package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"donutshop/models"
	"donutshop/utils"
)

func GetProducts(w http.ResponseWriter, r *http.Request) {
	list, err := products.Available(r.Context())
	if err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, list)
}

func GetProductById(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	product, err := products.ByID(r.Context(), productID)
	if err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, product)
}

func GetSellerProducts(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	list, err := products.BySeller(r.Context(), seller.ID)
	if err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, list)
}

// AddProduct accepts multipart form data so the seller can attach an image.
func AddProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // Limit to 10 MB
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	category := r.FormValue("category")
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Price must be a number")
		return
	}

	var imgURI string
	file, handler, err := r.FormFile("img")
	if err == nil {
		defer file.Close()

		imgPath, err := utils.SaveImageFile(file, "products", handler.Filename)
		if err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to save image")
			return
		}
		imgPath = strings.ReplaceAll(imgPath, "\\", "/")
		imgURI = fmt.Sprintf("%s/%s", domain(), imgPath)
	}

	product := models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		ImageURL:    imgURI,
		Category:    category,
		IsAvailable: r.FormValue("isAvailable") != "false",
		SellerID:    seller.ID,
	}

	id, err := products.Add(r.Context(), product)
	if err != nil {
		handleFault(w, err)
		return
	}
	product.ID = id

	utils.SendJSONResponse(w, http.StatusCreated, product)
}

func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("id")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	var req models.Product
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = productID
	req.SellerID = seller.ID

	if err := products.Update(r.Context(), req); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, req)
}

func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("id")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := products.Delete(r.Context(), productID, seller.ID); err != nil {
		handleFault(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}
