package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.RawMaterial{},
		&models.RecipeLine{},
		&models.Inventory{},
		&models.Role{},
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testCategory(t *testing.T, db *gorm.DB) models.Category {
	t.Helper()
	category := models.Category{Name: "Pastries", Active: true}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category
}

func createProduct(t *testing.T, db *gorm.DB, name string) models.Product {
	t.Helper()
	category := testCategory(t, db)
	product := models.Product{
		Name:       name,
		SKU:        strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Price:      decimal.RequireFromString("3.25"),
		CategoryID: category.ID,
		Active:     true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

func createMaterial(t *testing.T, db *gorm.DB, name, stock string) models.RawMaterial {
	t.Helper()
	material := models.RawMaterial{
		Name:          name,
		UnitOfMeasure: "kg",
		CostPerUnit:   decimal.RequireFromString("2.50"),
		CurrentStock:  decimal.RequireFromString(stock),
		MinStockLevel: decimal.RequireFromString("1"),
		ReorderPoint:  decimal.RequireFromString("0.5"),
		Active:        true,
	}
	if err := db.Create(&material).Error; err != nil {
		t.Fatalf("failed to create raw material: %v", err)
	}
	return material
}

func addRecipeLine(t *testing.T, db *gorm.DB, product models.Product, material models.RawMaterial, perUnit string) {
	t.Helper()
	line := models.RecipeLine{
		ProductID:       product.ID,
		RawMaterialID:   material.ID,
		QuantityPerUnit: decimal.RequireFromString(perUnit),
		UnitOfMeasure:   material.UnitOfMeasure,
	}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("failed to create recipe line: %v", err)
	}
}

func setFinishedStock(t *testing.T, db *gorm.DB, product models.Product, quantity int) {
	t.Helper()
	inv := models.Inventory{ProductID: product.ID, Quantity: quantity, MinStockLevel: 10, MaxStockLevel: 100}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("failed to create inventory row: %v", err)
	}
}

func materialStockNow(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var material models.RawMaterial
	if err := db.First(&material, id).Error; err != nil {
		t.Fatalf("failed to reload raw material %d: %v", id, err)
	}
	return material.CurrentStock
}

func TestRequirementsScalesRecipe(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Croissant")
	flour := createMaterial(t, db, "All-Purpose Flour", "10")
	butter := createMaterial(t, db, "Butter", "1.2")
	addRecipeLine(t, db, product, flour, "0.25")
	addRecipeLine(t, db, product, butter, "0.15")

	graph := NewRecipeGraph(db)
	reqs, err := graph.Requirements(context.Background(), product.ID, 4)
	if err != nil {
		t.Fatalf("Requirements returned error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if !reqs[0].Quantity.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected flour requirement 1, got %s", reqs[0].Quantity)
	}
	if !reqs[1].Quantity.Equal(decimal.RequireFromString("0.6")) {
		t.Fatalf("expected butter requirement 0.6, got %s", reqs[1].Quantity)
	}
	if reqs[1].Name != "Butter" {
		t.Fatalf("expected requirement to carry material name, got %q", reqs[1].Name)
	}

	// Requirements must not touch stock.
	if !materialStockNow(t, db, flour.ID).Equal(decimal.RequireFromString("10")) {
		t.Fatal("Requirements mutated flour stock")
	}
}

func TestRequirementsUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	graph := NewRecipeGraph(db)
	if _, err := graph.Requirements(context.Background(), 9999, 1); err != ErrUnknownProduct {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestMaxOrderableBottleneck(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Loaf")
	a := createMaterial(t, db, "a", "10")
	b := createMaterial(t, db, "b", "3")
	addRecipeLine(t, db, product, a, "2")
	addRecipeLine(t, db, product, b, "1")

	calc := NewCalculator(db)
	max, err := calc.MaxOrderable(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("MaxOrderable returned error: %v", err)
	}
	if max != 3 {
		t.Fatalf("expected max orderable 3 (min of 10/2 and 3/1), got %d", max)
	}
}

func TestCanFulfillIsConjunctive(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Loaf")
	a := createMaterial(t, db, "a", "10")
	b := createMaterial(t, db, "b", "3")
	addRecipeLine(t, db, product, a, "2")
	addRecipeLine(t, db, product, b, "1")

	calc := NewCalculator(db)
	ok, err := calc.CanFulfill(context.Background(), product.ID, 4)
	if err != nil {
		t.Fatalf("CanFulfill returned error: %v", err)
	}
	if ok {
		t.Fatal("expected CanFulfill(4) to be false: ingredient b supports only 3 even though a supports 5")
	}

	ok, err = calc.CanFulfill(context.Background(), product.ID, 3)
	if err != nil {
		t.Fatalf("CanFulfill returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected CanFulfill(3) to be true")
	}
}

func TestMaxOrderableStockPrecedence(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Baguette")
	flour := createMaterial(t, db, "All-Purpose Flour", "10")
	addRecipeLine(t, db, product, flour, "1") // recipe alone supports 10
	setFinishedStock(t, db, product, 5)

	calc := NewCalculator(db)
	max, err := calc.MaxOrderable(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("MaxOrderable returned error: %v", err)
	}
	if max != 5 {
		t.Fatalf("finished stock must take precedence over manufacturing capacity: expected 5, got %d", max)
	}
}

func TestMaxOrderableZeroIngredientShortCircuits(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Danish")
	flour := createMaterial(t, db, "All-Purpose Flour", "10")
	butter := createMaterial(t, db, "Butter", "0")
	addRecipeLine(t, db, product, flour, "0.25")
	addRecipeLine(t, db, product, butter, "0.1")

	calc := NewCalculator(db)
	max, err := calc.MaxOrderable(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("MaxOrderable returned error: %v", err)
	}
	if max != 0 {
		t.Fatalf("an out-of-stock ingredient must zero availability, got %d", max)
	}
}

func TestMaxOrderableNoRecipeNoStock(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Coffee")

	calc := NewCalculator(db)
	max, err := calc.MaxOrderable(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("a missing inventory row must not be an error: %v", err)
	}
	if max != 0 {
		t.Fatalf("expected 0 for product with no recipe and no stock, got %d", max)
	}
}

func TestDanglingMaterialReferenceFailsClosed(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "Danish")
	flour := createMaterial(t, db, "All-Purpose Flour", "10")
	butter := createMaterial(t, db, "Butter", "5")
	addRecipeLine(t, db, product, flour, "0.25")
	addRecipeLine(t, db, product, butter, "0.1")

	// The recipe line survives but its material row is gone.
	if err := db.Unscoped().Delete(&models.RawMaterial{}, butter.ID).Error; err != nil {
		t.Fatalf("failed to delete material: %v", err)
	}

	calc := NewCalculator(db)
	max, err := calc.MaxOrderable(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("MaxOrderable returned error: %v", err)
	}
	if max != 0 {
		t.Fatalf("a missing ingredient row must read as zero stock, got %d", max)
	}

	ok, err := calc.CanFulfill(context.Background(), product.ID, 1)
	if err != nil {
		t.Fatalf("CanFulfill returned error: %v", err)
	}
	if ok {
		t.Fatal("CanFulfill must be false when an ingredient row is missing")
	}

	ledger := NewLedger(db)
	err = ledger.Consume(context.Background(), product.ID, 1)
	if !errors.Is(err, ErrUnknownRawMaterial) {
		t.Fatalf("Consume error = %v, want ErrUnknownRawMaterial", err)
	}
	if got := materialStockNow(t, db, flour.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("flour stock = %s after refused consume, want 10", got)
	}
}
