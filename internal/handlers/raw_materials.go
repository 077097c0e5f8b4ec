package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type rawMaterialRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	Supplier        string          `json:"supplier"`
	SupplierContact string          `json:"supplier_contact"`
	Location        string          `json:"location"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
}

type stockUpdateRequest struct {
	CurrentStock decimal.Decimal `json:"current_stock"`
}

type rawMaterialResponse struct {
	models.RawMaterial
	LowStock      bool `json:"low_stock"`
	CriticalStock bool `json:"critical_stock"`
}

// RawMaterialResource handles REST-style interactions for raw materials and
// their stock levels.
func RawMaterialResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/raw-materials"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRawMaterials(w, r)
		case http.MethodPost:
			createRawMaterial(w, r)
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
	materialID := uint(idValue)

	if len(segments) > 1 && segments[1] == "stock" {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		updateRawMaterialStock(w, r, materialID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRawMaterial(w, r, materialID)
	case http.MethodPut:
		updateRawMaterial(w, r, materialID)
	case http.MethodDelete:
		deleteRawMaterial(w, r, materialID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func projectRawMaterial(material models.RawMaterial) rawMaterialResponse {
	return rawMaterialResponse{
		RawMaterial:   material,
		LowStock:      material.LowStock(),
		CriticalStock: material.CriticalStock(),
	}
}

func listRawMaterials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var materials []models.RawMaterial
	query := database.WithContext(ctx).Where("active = ?", true).Order("name asc")
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Find(&materials).Error; err != nil {
		applog.Error(ctx, "failed to list raw materials", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw materials")
		return
	}

	responses := make([]rawMaterialResponse, 0, len(materials))
	lowOnly := r.URL.Query().Get("low_stock") == "true"
	for _, material := range materials {
		if lowOnly && !material.LowStock() {
			continue
		}
		responses = append(responses, projectRawMaterial(material))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createRawMaterial(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var payload rawMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if payload.CurrentStock.Sign() < 0 {
		writeJSONError(w, http.StatusBadRequest, "current_stock must not be negative")
		return
	}

	material := models.RawMaterial{
		Name:            name,
		Description:     strings.TrimSpace(payload.Description),
		UnitOfMeasure:   strings.TrimSpace(payload.UnitOfMeasure),
		CostPerUnit:     payload.CostPerUnit,
		Supplier:        strings.TrimSpace(payload.Supplier),
		SupplierContact: strings.TrimSpace(payload.SupplierContact),
		Location:        strings.TrimSpace(payload.Location),
		CurrentStock:    payload.CurrentStock,
		MinStockLevel:   payload.MinStockLevel,
		ReorderPoint:    payload.ReorderPoint,
		ExpiryDate:      payload.ExpiryDate,
		Active:          true,
	}
	if err := database.WithContext(ctx).Create(&material).Error; err != nil {
		applog.Error(ctx, "failed to create raw material", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create raw material")
		return
	}
	writeJSON(w, http.StatusCreated, projectRawMaterial(material))
}

func showRawMaterial(w http.ResponseWriter, r *http.Request, materialID uint) {
	ctx := r.Context()
	var material models.RawMaterial
	if err := database.WithContext(ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load raw material", "error", err, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}
	writeJSON(w, http.StatusOK, projectRawMaterial(material))
}

func updateRawMaterial(w http.ResponseWriter, r *http.Request, materialID uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var material models.RawMaterial
	if err := database.WithContext(ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load raw material for update", "error", err, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}

	var payload rawMaterialRequest
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
		"name":             name,
		"description":      strings.TrimSpace(payload.Description),
		"unit_of_measure":  strings.TrimSpace(payload.UnitOfMeasure),
		"cost_per_unit":    payload.CostPerUnit,
		"supplier":         strings.TrimSpace(payload.Supplier),
		"supplier_contact": strings.TrimSpace(payload.SupplierContact),
		"location":         strings.TrimSpace(payload.Location),
		"min_stock_level":  payload.MinStockLevel,
		"reorder_point":    payload.ReorderPoint,
		"expiry_date":      payload.ExpiryDate,
	}
	if err := database.WithContext(ctx).Model(&material).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update raw material", "error", err, "id", materialID)
		writeJSONError(w, http.StatusBadRequest, "update failed")
		return
	}
	showRawMaterial(w, r, materialID)
}

// updateRawMaterialStock sets the absolute stock level, recording a restock
// timestamp when the level rises.
func updateRawMaterialStock(w http.ResponseWriter, r *http.Request, materialID uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var material models.RawMaterial
	if err := database.WithContext(ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load raw material for stock update", "error", err, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load raw material")
		return
	}

	var payload stockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.CurrentStock.Sign() < 0 {
		writeJSONError(w, http.StatusBadRequest, "current_stock must not be negative")
		return
	}

	updates := map[string]any{"current_stock": payload.CurrentStock}
	if payload.CurrentStock.Cmp(material.CurrentStock) > 0 {
		updates["last_restocked"] = time.Now().UTC()
	}
	if err := database.WithContext(ctx).Model(&material).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update stock", "error", err, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update stock")
		return
	}
	showRawMaterial(w, r, materialID)
}

func deleteRawMaterial(w http.ResponseWriter, r *http.Request, materialID uint) {
	if !requireRole(w, r, models.RoleAdmin) {
		return
	}
	ctx := r.Context()

	// Materials referenced by recipes are deactivated, never removed.
	var count int64
	if err := database.WithContext(ctx).Model(&models.RecipeLine{}).Where("raw_material_id = ?", materialID).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to check recipe references", "error", err, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete raw material")
		return
	}
	if count > 0 {
		writeJSONError(w, http.StatusConflict, "raw material is referenced by a recipe")
		return
	}

	result := database.WithContext(ctx).Model(&models.RawMaterial{}).Where("id = ?", materialID).Update("active", false)
	if result.Error != nil {
		applog.Error(ctx, "failed to deactivate raw material", "error", result.Error, "id", materialID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete raw material")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
