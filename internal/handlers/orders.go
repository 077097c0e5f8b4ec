package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakehouse/internal/inventory"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type orderItemRequest struct {
	ProductID           uint   `json:"product_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

type orderRequest struct {
	OrderType           string             `json:"order_type"`
	DeliveryDate        *time.Time         `json:"delivery_date"`
	DeliveryAddress     string             `json:"delivery_address"`
	SpecialInstructions string             `json:"special_instructions"`
	EventDate           *time.Time         `json:"event_date"`
	GuestCount          int                `json:"guest_count"`
	SetupRequirements   string             `json:"setup_requirements"`
	Items               []orderItemRequest `json:"items"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type stockErrorResponse struct {
	Error         string          `json:"error"`
	Kind          string          `json:"kind"`
	ProductID     uint            `json:"product_id,omitempty"`
	RawMaterialID uint            `json:"raw_material_id,omitempty"`
	Ingredient    string          `json:"ingredient,omitempty"`
	Shortfall     decimal.Decimal `json:"shortfall,omitempty"`
}

// OrderResource handles order intake and lookups, plus status transitions
// via the /status subroute.
func OrderResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/orders"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listOrders(w, r)
		case http.MethodPost:
			createOrder(w, r, userID)
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
	orderID := uint(idValue)

	if len(segments) > 1 && segments[1] == "status" {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		updateOrderStatus(w, r, orderID)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	showOrder(w, r, orderID)
}

// generateOrderNumber builds a unique, human-readable order identifier:
// ORD + timestamp + four random digits.
func generateOrderNumber() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	suffix := (int(buf[0])<<8 | int(buf[1])) % 10000
	return fmt.Sprintf("ORD%s%04d", time.Now().UTC().Format("200601021504"), suffix)
}

func listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var orders []models.Order
	query := database.WithContext(ctx).Preload("Items.Product").Order("created_at desc")
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		if !models.ValidStatus(status) {
			writeJSONError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		applog.Error(ctx, "failed to list orders", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func createOrder(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload orderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(payload.Items) == 0 {
		writeJSONError(w, http.StatusBadRequest, "order must contain at least one item")
		return
	}

	orderType := models.OrderType(strings.TrimSpace(payload.OrderType))
	switch orderType {
	case "":
		orderType = models.TypeRegular
	case models.TypeRegular, models.TypeCatering, models.TypeOnline:
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown order type")
		return
	}

	items := make([]models.OrderItem, 0, len(payload.Items))
	total := decimal.Zero
	for _, item := range payload.Items {
		if item.Quantity <= 0 {
			writeJSONError(w, http.StatusBadRequest, "item quantity must be positive")
			return
		}

		var product models.Product
		if err := database.WithContext(ctx).First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown product %d", item.ProductID))
				return
			}
			applog.Error(ctx, "failed to load product for order", "error", err, "product", item.ProductID)
			writeJSONError(w, http.StatusInternalServerError, "unable to create order")
			return
		}

		// Intake only checks availability; stock moves when the order
		// is confirmed.
		max, err := calculator.MaxOrderable(ctx, product.ID)
		if err != nil {
			applog.Error(ctx, "failed to compute availability for order", "error", err, "product", product.ID)
			writeJSONError(w, http.StatusInternalServerError, "unable to create order")
			return
		}
		if item.Quantity > max {
			writeJSON(w, http.StatusUnprocessableEntity, stockErrorResponse{
				Error:     fmt.Sprintf("only %d units of %s available", max, product.Name),
				Kind:      "insufficient_stock",
				ProductID: product.ID,
			})
			return
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:           product.ID,
			Quantity:            item.Quantity,
			UnitPrice:           product.Price,
			TotalPrice:          lineTotal,
			SpecialInstructions: strings.TrimSpace(item.SpecialInstructions),
		})
		total = total.Add(lineTotal)
	}

	order := models.Order{
		OrderNumber:         generateOrderNumber(),
		CustomerID:          userID,
		OrderType:           orderType,
		Status:              models.StatusPending,
		TotalAmount:         total,
		DeliveryDate:        payload.DeliveryDate,
		DeliveryAddress:     strings.TrimSpace(payload.DeliveryAddress),
		SpecialInstructions: strings.TrimSpace(payload.SpecialInstructions),
		EventDate:           payload.EventDate,
		GuestCount:          payload.GuestCount,
		SetupRequirements:   strings.TrimSpace(payload.SetupRequirements),
		Items:               items,
	}
	if err := database.WithContext(ctx).Create(&order).Error; err != nil {
		applog.Error(ctx, "failed to create order", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create order")
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func showOrder(w http.ResponseWriter, r *http.Request, orderID uint) {
	ctx := r.Context()
	var order models.Order
	err := database.WithContext(ctx).Preload("Items.Product").Preload("Customer").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load order", "error", err, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// updateOrderStatus drives the order lifecycle. Confirming consumes stock
// for every item; cancelling a confirmed order restores it. The handler
// skips no-op requests so a double-submitted click does not consume twice.
func updateOrderStatus(w http.ResponseWriter, r *http.Request, orderID uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker, models.RoleStaff) {
		return
	}
	ctx := r.Context()

	var payload statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !models.ValidStatus(payload.Status) {
		writeJSONError(w, http.StatusBadRequest, "unknown order status")
		return
	}
	next := models.OrderStatus(payload.Status)

	var order models.Order
	if err := database.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load order for status update", "error", err, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load order")
		return
	}
	if order.Status == next {
		showOrder(w, r, orderID)
		return
	}

	if err := lifecycle.Transition(ctx, orderID, next); err != nil {
		writeStockError(w, r, err)
		return
	}

	applog.Info(ctx, "order status updated", "order", order.OrderNumber, "from", order.Status, "to", next)
	showOrder(w, r, orderID)
}

// writeStockError maps inventory domain errors onto JSON responses. No
// error is swallowed; anything unrecognized is surfaced as a 500.
func writeStockError(w http.ResponseWriter, r *http.Request, err error) {
	var finished *inventory.InsufficientFinishedStockError
	if errors.As(err, &finished) {
		writeJSON(w, http.StatusConflict, stockErrorResponse{
			Error:     finished.Error(),
			Kind:      "insufficient_finished_stock",
			ProductID: finished.ProductID,
		})
		return
	}

	var material *inventory.InsufficientRawMaterialError
	if errors.As(err, &material) {
		writeJSON(w, http.StatusConflict, stockErrorResponse{
			Error:         material.Error(),
			Kind:          "insufficient_raw_material",
			ProductID:     material.ProductID,
			RawMaterialID: material.RawMaterialID,
			Ingredient:    material.RawMaterialName,
			Shortfall:     material.Shortfall,
		})
		return
	}

	var invalid *inventory.InvalidTransitionError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusUnprocessableEntity, stockErrorResponse{
			Error: invalid.Error(),
			Kind:  "invalid_transition",
		})
		return
	}

	switch {
	case errors.Is(err, inventory.ErrUnknownOrder):
		http.NotFound(w, r)
	case errors.Is(err, inventory.ErrUnknownProduct), errors.Is(err, inventory.ErrUnknownRawMaterial):
		writeJSON(w, http.StatusUnprocessableEntity, stockErrorResponse{Error: err.Error(), Kind: "unknown_resource"})
	default:
		applog.Error(r.Context(), "status transition failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to update order status")
	}
}
