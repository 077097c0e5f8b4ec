package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakehouse/internal/inventory"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type productRequest struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	SKU                 string          `json:"sku"`
	Price               decimal.Decimal `json:"price"`
	Cost                decimal.Decimal `json:"cost"`
	CategoryID          uint            `json:"category_id"`
	Active              *bool           `json:"active"`
	RequiresPreparation bool            `json:"requires_preparation"`
	PreparationTime     int             `json:"preparation_time"`
}

type recipeLineRequest struct {
	RawMaterialID   uint            `json:"raw_material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
}

type availabilityResponse struct {
	ProductID    uint  `json:"product_id"`
	MaxOrderable int   `json:"max_orderable"`
	Quantity     int   `json:"quantity,omitempty"`
	CanFulfill   *bool `json:"can_fulfill,omitempty"`
}

// ProductResource handles REST-style interactions for the product catalog,
// including per-product recipe, availability and requirement lookups.
func ProductResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/products"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listProducts(w, r)
		case http.MethodPost:
			createProduct(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	productID := uint(idValue)

	if len(segments) > 1 {
		switch segments[1] {
		case "availability":
			productAvailability(w, r, productID)
		case "requirements":
			productRequirements(w, r, productID)
		case "recipe":
			productRecipe(w, r, productID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showProduct(w, r, productID)
	case http.MethodPut:
		updateProduct(w, r, productID)
	case http.MethodDelete:
		deleteProduct(w, r, productID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var products []models.Product
	query := database.WithContext(ctx).
		Preload("Category").
		Preload("Recipe.RawMaterial").
		Where("active = ?", true).
		Order("name asc")
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to list products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func createProduct(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if payload.CategoryID == 0 {
		writeJSONError(w, http.StatusBadRequest, "category_id is required")
		return
	}

	product := models.Product{
		Name:                name,
		Description:         strings.TrimSpace(payload.Description),
		SKU:                 strings.TrimSpace(payload.SKU),
		Price:               payload.Price,
		Cost:                payload.Cost,
		CategoryID:          payload.CategoryID,
		Active:              true,
		RequiresPreparation: payload.RequiresPreparation,
		PreparationTime:     payload.PreparationTime,
	}

	// The finished-goods row is created with the product so availability
	// and the ledger always have a record to work against.
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return tx.Create(&models.Inventory{ProductID: product.ID, Quantity: 0, MinStockLevel: 10, MaxStockLevel: 100}).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to create product", "error", err)
		writeJSONError(w, http.StatusConflict, "unable to create product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func showProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	ctx := r.Context()
	var product models.Product
	err := database.WithContext(ctx).
		Preload("Category").
		Preload("Recipe.RawMaterial").
		First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func updateProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var product models.Product
	if err := database.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for update", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}

	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	updates := map[string]any{
		"name":                 name,
		"description":          strings.TrimSpace(payload.Description),
		"sku":                  strings.TrimSpace(payload.SKU),
		"price":                payload.Price,
		"cost":                 payload.Cost,
		"requires_preparation": payload.RequiresPreparation,
		"preparation_time":     payload.PreparationTime,
	}
	if payload.CategoryID != 0 {
		updates["category_id"] = payload.CategoryID
	}
	if payload.Active != nil {
		updates["active"] = *payload.Active
	}

	if err := database.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update product", "error", err, "id", productID)
		writeJSONError(w, http.StatusBadRequest, "update failed")
		return
	}
	showProduct(w, r, productID)
}

func deleteProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	if !requireRole(w, r, models.RoleAdmin) {
		return
	}
	ctx := r.Context()

	// Products referenced by order history are deactivated, never removed.
	result := database.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("active", false)
	if result.Error != nil {
		applog.Error(ctx, "failed to deactivate product", "error", result.Error, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productAvailability(w http.ResponseWriter, r *http.Request, productID uint) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	max, err := calculator.MaxOrderable(ctx, productID)
	if err != nil {
		if errors.Is(err, inventory.ErrUnknownProduct) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to compute availability", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute availability")
		return
	}

	resp := availabilityResponse{ProductID: productID, MaxOrderable: max}
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil || quantity < 0 {
			writeJSONError(w, http.StatusBadRequest, "quantity must be a non-negative integer")
			return
		}
		ok, err := calculator.CanFulfill(ctx, productID, quantity)
		if err != nil {
			applog.Error(ctx, "failed to check feasibility", "error", err, "id", productID)
			writeJSONError(w, http.StatusInternalServerError, "unable to compute availability")
			return
		}
		resp.Quantity = quantity
		resp.CanFulfill = &ok
	}
	writeJSON(w, http.StatusOK, resp)
}

func productRequirements(w http.ResponseWriter, r *http.Request, productID uint) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONError(w, http.StatusBadRequest, "quantity must be a non-negative integer")
			return
		}
		quantity = parsed
	}

	requirements, err := graph.Requirements(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, inventory.ErrUnknownProduct) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to compute requirements", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute requirements")
		return
	}
	writeJSON(w, http.StatusOK, requirements)
}

// productRecipe replaces the product's recipe lines wholesale.
func productRecipe(w http.ResponseWriter, r *http.Request, productID uint) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var payload []recipeLineRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	for _, line := range payload {
		if line.QuantityPerUnit.Sign() <= 0 {
			writeJSONError(w, http.StatusBadRequest, "quantity_per_unit must be positive")
			return
		}
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		for _, line := range payload {
			created := models.RecipeLine{
				ProductID:       productID,
				RawMaterialID:   line.RawMaterialID,
				QuantityPerUnit: line.QuantityPerUnit,
				UnitOfMeasure:   strings.TrimSpace(line.UnitOfMeasure),
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to replace recipe", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update recipe")
		return
	}
	showProduct(w, r, productID)
}
