package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type dashboardStats struct {
	TotalOrders            int64           `json:"total_orders"`
	PendingOrders          int64           `json:"pending_orders"`
	OrdersToday            int64           `json:"orders_today"`
	RevenueToday           decimal.Decimal `json:"revenue_today"`
	LowStockProducts       int64           `json:"low_stock_products"`
	LowStockMaterials      int             `json:"low_stock_materials"`
	CriticalStockMaterials int             `json:"critical_stock_materials"`
	ActiveProducts         int64           `json:"active_products"`
	ScheduledShiftsToday   int64           `json:"scheduled_shifts_today"`
}

// Dashboard returns the headline numbers for the back-office landing page.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	db := database.WithContext(ctx)

	var stats dashboardStats
	startOfDay := time.Now().Truncate(24 * time.Hour)

	queries := []error{
		db.Model(&models.Order{}).Count(&stats.TotalOrders).Error,
		db.Model(&models.Order{}).Where("status = ?", models.StatusPending).Count(&stats.PendingOrders).Error,
		db.Model(&models.Order{}).Where("created_at >= ?", startOfDay).Count(&stats.OrdersToday).Error,
		db.Model(&models.Inventory{}).Where("quantity <= min_stock_level").Count(&stats.LowStockProducts).Error,
		db.Model(&models.Product{}).Where("active = ?", true).Count(&stats.ActiveProducts).Error,
		db.Model(&models.StaffSchedule{}).Where("date = ?", startOfDay).Count(&stats.ScheduledShiftsToday).Error,
	}
	for _, err := range queries {
		if err != nil {
			applog.Error(ctx, "failed to compute dashboard stats", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
			return
		}
	}

	// Revenue is summed in Go so the decimal columns never round through a
	// float aggregate.
	var todays []models.Order
	err := db.Where("created_at >= ? AND status <> ?", startOfDay, models.StatusCancelled).
		Find(&todays).Error
	if err != nil {
		applog.Error(ctx, "failed to load today's orders", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	stats.RevenueToday = decimal.Zero
	for _, order := range todays {
		stats.RevenueToday = stats.RevenueToday.Add(order.TotalAmount)
	}

	// Raw material thresholds are decimal comparisons, so they go through
	// the model predicates rather than SQL.
	var materials []models.RawMaterial
	if err := db.Where("active = ?", true).Find(&materials).Error; err != nil {
		applog.Error(ctx, "failed to load raw materials", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	for i := range materials {
		if materials[i].LowStock() {
			stats.LowStockMaterials++
		}
		if materials[i].CriticalStock() {
			stats.CriticalStockMaterials++
		}
	}

	writeJSON(w, http.StatusOK, stats)
}
