package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakehouse/models"
)

// orderFixture seeds a croissant product whose recipe allows exactly 8 units
// (flour 10 kg at 0.25/unit, butter 1.2 kg at 0.15/unit).
func orderFixture(t *testing.T, db *gorm.DB) (models.Product, models.RawMaterial, models.RawMaterial) {
	t.Helper()
	category := models.Category{Name: "Pastries", Active: true}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	product := models.Product{Name: "Croissant", SKU: "PAST001", Price: decimal.RequireFromString("3.50"), CategoryID: category.ID, Active: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	flour := models.RawMaterial{Name: "Flour", UnitOfMeasure: "kg", CurrentStock: decimal.NewFromInt(10), Active: true}
	butter := models.RawMaterial{Name: "Butter", UnitOfMeasure: "kg", CurrentStock: decimal.RequireFromString("1.2"), Active: true}
	for _, m := range []*models.RawMaterial{&flour, &butter} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to create raw material: %v", err)
		}
	}
	lines := []models.RecipeLine{
		{ProductID: product.ID, RawMaterialID: flour.ID, QuantityPerUnit: decimal.RequireFromString("0.25"), UnitOfMeasure: "kg"},
		{ProductID: product.ID, RawMaterialID: butter.ID, QuantityPerUnit: decimal.RequireFromString("0.15"), UnitOfMeasure: "kg"},
	}
	for i := range lines {
		if err := db.Create(&lines[i]).Error; err != nil {
			t.Fatalf("failed to create recipe line: %v", err)
		}
	}
	return product, flour, butter
}

func postOrder(t *testing.T, db *gorm.DB, user models.User, role string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/app/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authenticateRequest(t, sessionManager, req, user.ID, role)
	w := httptest.NewRecorder()
	OrderResource(w, req)
	return w
}

func putStatus(t *testing.T, orderID uint, user models.User, role, status string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"status": status})
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/orders/%d/status", orderID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authenticateRequest(t, sessionManager, req, user.ID, role)
	w := httptest.NewRecorder()
	OrderResource(w, req)
	return w
}

func TestOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD\d{12}\d{4}$`)
	for i := 0; i < 5; i++ {
		if number := generateOrderNumber(); !pattern.MatchString(number) {
			t.Fatalf("order number %q does not match ORD<timestamp><4 digits>", number)
		}
	}
}

func TestCreateOrderComputesDecimalTotal(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 3}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if !created.TotalAmount.Equal(decimal.RequireFromString("10.50")) {
		t.Fatalf("total = %s, want 10.50", created.TotalAmount)
	}
	if created.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}

	// Intake must not move stock.
	var flour models.RawMaterial
	if err := db.Where("name = ?", "Flour").First(&flour).Error; err != nil {
		t.Fatalf("failed to reload flour: %v", err)
	}
	if !flour.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("flour stock = %s after intake, want 10", flour.CurrentStock)
	}
}

func TestCreateOrderRejectsOverAvailability(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 9}},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for quantity above availability, got %d", w.Code)
	}
}

func TestCreateOrderRejectsEmptyAndUnknown(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{"items": []map[string]any{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty order, got %d", w.Code)
	}

	w = postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": 999, "quantity": 1}},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for unknown product, got %d", w.Code)
	}
}

func TestConfirmOrderConsumesStock(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	staff := createTestUser(t, db, "staff", models.RoleStaff)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 4}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	statusW := putStatus(t, order.ID, staff, models.RoleStaff, "confirmed")
	if statusW.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", statusW.Code, statusW.Body.String())
	}

	var flour, butter models.RawMaterial
	if err := db.Where("name = ?", "Flour").First(&flour).Error; err != nil {
		t.Fatalf("failed to reload flour: %v", err)
	}
	if err := db.Where("name = ?", "Butter").First(&butter).Error; err != nil {
		t.Fatalf("failed to reload butter: %v", err)
	}
	if !flour.CurrentStock.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("flour stock = %s after confirming 4 units, want 9", flour.CurrentStock)
	}
	if !butter.CurrentStock.Equal(decimal.RequireFromString("0.6")) {
		t.Fatalf("butter stock = %s after confirming 4 units, want 0.6", butter.CurrentStock)
	}
}

func TestCancelConfirmedOrderRestoresStock(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	staff := createTestUser(t, db, "staff", models.RoleStaff)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 4}},
	})
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if putStatus(t, order.ID, staff, models.RoleStaff, "confirmed").Code != http.StatusOK {
		t.Fatal("failed to confirm order")
	}
	if putStatus(t, order.ID, staff, models.RoleStaff, "cancelled").Code != http.StatusOK {
		t.Fatal("failed to cancel order")
	}

	var flour, butter models.RawMaterial
	db.Where("name = ?", "Flour").First(&flour)
	db.Where("name = ?", "Butter").First(&butter)
	if !flour.CurrentStock.Equal(decimal.NewFromInt(10)) || !butter.CurrentStock.Equal(decimal.RequireFromString("1.2")) {
		t.Fatalf("stock not restored after cancel: flour=%s butter=%s", flour.CurrentStock, butter.CurrentStock)
	}
}

func TestConfirmBeyondStockReturnsConflict(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	staff := createTestUser(t, db, "staff", models.RoleStaff)
	product, _, butter := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 8}},
	})
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	// Drain butter between intake and confirmation.
	if err := db.Model(&models.RawMaterial{}).Where("id = ?", butter.ID).
		Update("current_stock", decimal.Zero).Error; err != nil {
		t.Fatalf("failed to drain butter: %v", err)
	}

	statusW := putStatus(t, order.ID, staff, models.RoleStaff, "confirmed")
	if statusW.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", statusW.Code, statusW.Body.String())
	}
	var resp stockErrorResponse
	if err := json.Unmarshal(statusW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Kind != "insufficient_raw_material" || resp.Ingredient != "Butter" {
		t.Fatalf("unexpected error response: %+v", resp)
	}

	var after models.Order
	if err := db.First(&after, order.ID).Error; err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if after.Status != models.StatusPending {
		t.Fatalf("order status = %s after failed confirm, want pending", after.Status)
	}
}

func TestStatusUpdateIsIdempotentForSameStatus(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	staff := createTestUser(t, db, "staff", models.RoleStaff)
	product, flour, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 2}},
	})
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if putStatus(t, order.ID, staff, models.RoleStaff, "confirmed").Code != http.StatusOK {
		t.Fatal("failed to confirm order")
	}
	// Second identical request must not consume again.
	if putStatus(t, order.ID, staff, models.RoleStaff, "confirmed").Code != http.StatusOK {
		t.Fatal("repeated confirm should be a no-op, not an error")
	}

	var after models.RawMaterial
	if err := db.First(&after, flour.ID).Error; err != nil {
		t.Fatalf("failed to reload flour: %v", err)
	}
	if !after.CurrentStock.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("flour stock = %s after repeated confirm, want 9.5", after.CurrentStock)
	}
}

func TestInvalidTransitionReturnsUnprocessable(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	staff := createTestUser(t, db, "staff", models.RoleStaff)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	})
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	statusW := putStatus(t, order.ID, staff, models.RoleStaff, "delivered")
	if statusW.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for pending->delivered, got %d", statusW.Code)
	}
}

func TestStatusUpdateRequiresStaffRole(t *testing.T) {
	db, _ := withTestEnvironment(t)
	customer := createTestUser(t, db, "customer", models.RoleCustomer)
	product, _, _ := orderFixture(t, db)

	w := postOrder(t, db, customer, models.RoleCustomer, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	})
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	statusW := putStatus(t, order.ID, customer, models.RoleCustomer, "confirmed")
	if statusW.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for customer, got %d", statusW.Code)
	}
}
