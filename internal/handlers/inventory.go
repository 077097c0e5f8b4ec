package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type inventoryUpdateRequest struct {
	Quantity      *int `json:"quantity"`
	MinStockLevel *int `json:"min_stock_level"`
	MaxStockLevel *int `json:"max_stock_level"`
}

// InventoryResource exposes finished-goods stock rows. Rows are created by
// the product handlers; this endpoint only lists and adjusts them.
func InventoryResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/inventory"), "/")
	if path == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listInventory(w, r)
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	updateInventory(w, r, uint(idValue))
}

type inventoryRow struct {
	models.Inventory
	LowStock bool `json:"low_stock"`
}

func listInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var rows []models.Inventory
	query := database.WithContext(ctx).Preload("Product").Order("product_id asc")
	if r.URL.Query().Get("low_stock") == "true" {
		query = query.Where("quantity <= min_stock_level")
	}
	if err := query.Find(&rows).Error; err != nil {
		applog.Error(ctx, "failed to list inventory", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}

	response := make([]inventoryRow, 0, len(rows))
	for _, row := range rows {
		response = append(response, inventoryRow{Inventory: row, LowStock: row.LowStock()})
	}
	writeJSON(w, http.StatusOK, response)
}

func updateInventory(w http.ResponseWriter, r *http.Request, id uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker, models.RoleStaff) {
		return
	}
	ctx := r.Context()

	var payload inventoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	var row models.Inventory
	if err := database.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory row", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}

	updates := map[string]any{}
	if payload.Quantity != nil {
		if *payload.Quantity < 0 {
			writeJSONError(w, http.StatusBadRequest, "quantity must not be negative")
			return
		}
		updates["quantity"] = *payload.Quantity
		if *payload.Quantity > row.Quantity {
			updates["last_restocked"] = time.Now()
		}
	}
	if payload.MinStockLevel != nil {
		updates["min_stock_level"] = *payload.MinStockLevel
	}
	if payload.MaxStockLevel != nil {
		updates["max_stock_level"] = *payload.MaxStockLevel
	}
	if len(updates) == 0 {
		writeJSONError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if err := database.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update inventory row", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to update inventory")
		return
	}
	writeJSON(w, http.StatusOK, inventoryRow{Inventory: row, LowStock: row.LowStock()})
}
