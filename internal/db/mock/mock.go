package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/internal/db"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// New returns an in-memory sqlite database seeded with representative bakery
// data: a staffed back office, a product catalog with recipes, and stocked
// raw materials.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open("file:bakehouse-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	roles := map[string]*models.Role{}
	for name, description := range map[string]string{
		models.RoleAdmin:    "Full administrative access",
		models.RoleBaker:    "Production and inventory access",
		models.RoleStaff:    "Front-of-house access",
		models.RoleCustomer: "Customer with order access",
	} {
		role := &models.Role{Name: name, Description: description}
		if err := database.WithContext(ctx).Create(role).Error; err != nil {
			return err
		}
		roles[name] = role
	}

	password, err := bcrypt.GenerateFromPassword([]byte("bakehouse"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []*models.User{
		{Username: "admin", Email: "admin@bakehouse.app", PasswordHash: string(password), FirstName: "Ada", LastName: "Baker", RoleID: roles[models.RoleAdmin].ID, Active: true},
		{Username: "baker1", Email: "baker@bakehouse.app", PasswordHash: string(password), FirstName: "Henri", LastName: "Crust", RoleID: roles[models.RoleBaker].ID, Active: true},
		{Username: "customer1", Email: "customer@bakehouse.app", PasswordHash: string(password), FirstName: "June", LastName: "Moreno", RoleID: roles[models.RoleCustomer].ID, Active: true},
	}
	for _, user := range users {
		if err := database.WithContext(ctx).Create(user).Error; err != nil {
			return err
		}
	}

	categories := map[string]*models.Category{}
	for name, description := range map[string]string{
		"Breads":    "Fresh baked breads and loaves",
		"Pastries":  "Sweet and savory pastries",
		"Cakes":     "Custom cakes and desserts",
		"Beverages": "Coffee, tea, and other drinks",
	} {
		category := &models.Category{Name: name, Description: description, Active: true}
		if err := database.WithContext(ctx).Create(category).Error; err != nil {
			return err
		}
		categories[name] = category
	}

	materials := map[string]*models.RawMaterial{}
	for _, m := range []struct {
		name, unit, cost, stock, min, reorder, supplier, location string
	}{
		{"All-Purpose Flour", "kg", "2.50", "50", "10", "5", "Local Flour Mill", "Storage A"},
		{"Sugar", "kg", "1.80", "30", "8", "3", "Sweet Suppliers Inc", "Storage A"},
		{"Butter", "kg", "8.00", "15", "5", "2", "Dairy Delights", "Refrigerator"},
		{"Eggs", "pieces", "0.30", "200", "50", "20", "Fresh Farm Eggs", "Refrigerator"},
		{"Milk", "l", "2.20", "20", "5", "2", "Dairy Delights", "Refrigerator"},
		{"Yeast", "kg", "20.00", "0.5", "0.1", "0.05", "Baking Essentials", "Storage A"},
		{"Salt", "kg", "1.50", "25", "5", "2", "Salt Suppliers", "Storage A"},
		{"Chocolate Chips", "kg", "12.00", "8", "3", "1", "Chocolate World", "Storage B"},
	} {
		material := &models.RawMaterial{
			Name:          m.name,
			UnitOfMeasure: m.unit,
			CostPerUnit:   decimal.RequireFromString(m.cost),
			CurrentStock:  decimal.RequireFromString(m.stock),
			MinStockLevel: decimal.RequireFromString(m.min),
			ReorderPoint:  decimal.RequireFromString(m.reorder),
			Supplier:      m.supplier,
			Location:      m.location,
			Active:        true,
		}
		if err := database.WithContext(ctx).Create(material).Error; err != nil {
			return err
		}
		materials[m.name] = material
	}

	products := map[string]*models.Product{}
	for _, p := range []struct {
		name, price, category, sku string
		prepMinutes                int
	}{
		{"Artisan Sourdough", "8.50", "Breads", "BREAD001", 240},
		{"Croissant", "3.25", "Pastries", "PAST001", 180},
		{"Chocolate Cake", "25.00", "Cakes", "CAKE001", 120},
		{"Fresh Coffee", "4.50", "Beverages", "BEV001", 0},
	} {
		product := &models.Product{
			Name:                p.name,
			Price:               decimal.RequireFromString(p.price),
			SKU:                 p.sku,
			CategoryID:          categories[p.category].ID,
			Active:              true,
			RequiresPreparation: p.prepMinutes > 0,
			PreparationTime:     p.prepMinutes,
		}
		if err := database.WithContext(ctx).Create(product).Error; err != nil {
			return err
		}
		products[p.name] = product
	}

	for _, r := range []struct {
		product, material, perUnit string
	}{
		{"Artisan Sourdough", "All-Purpose Flour", "0.5"},
		{"Artisan Sourdough", "Salt", "0.01"},
		{"Artisan Sourdough", "Yeast", "0.005"},
		{"Croissant", "All-Purpose Flour", "0.25"},
		{"Croissant", "Butter", "0.15"},
		{"Croissant", "Yeast", "0.01"},
		{"Chocolate Cake", "All-Purpose Flour", "0.3"},
		{"Chocolate Cake", "Sugar", "0.4"},
		{"Chocolate Cake", "Eggs", "4"},
		{"Chocolate Cake", "Milk", "0.25"},
		{"Chocolate Cake", "Chocolate Chips", "0.2"},
	} {
		line := models.RecipeLine{
			ProductID:       products[r.product].ID,
			RawMaterialID:   materials[r.material].ID,
			QuantityPerUnit: decimal.RequireFromString(r.perUnit),
			UnitOfMeasure:   materials[r.material].UnitOfMeasure,
		}
		if err := database.WithContext(ctx).Create(&line).Error; err != nil {
			return err
		}
	}

	// Fresh coffee is stock-only; the baked goods start without finished
	// stock so availability exercises the recipe path.
	for name, quantity := range map[string]int{
		"Fresh Coffee": 50,
	} {
		inv := models.Inventory{ProductID: products[name].ID, Quantity: quantity, MinStockLevel: 10, MaxStockLevel: 100}
		if err := database.WithContext(ctx).Create(&inv).Error; err != nil {
			return err
		}
	}

	order := models.Order{
		OrderNumber: fmt.Sprintf("ORD%s0001", time.Now().UTC().Format("200601021504")),
		CustomerID:  users[2].ID,
		OrderType:   models.TypeRegular,
		Status:      models.StatusPending,
		TotalAmount: decimal.RequireFromString("6.50"),
		Items: []models.OrderItem{
			{ProductID: products["Croissant"].ID, Quantity: 2, UnitPrice: products["Croissant"].Price, TotalPrice: products["Croissant"].Price.Mul(decimal.NewFromInt(2))},
		},
	}
	if err := database.WithContext(ctx).Create(&order).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
