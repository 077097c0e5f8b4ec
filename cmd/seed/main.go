// Command seed populates a bakery database with the baseline roles, staff
// accounts, product catalog, recipes and raw materials needed to run the
// back office. It is idempotent: rerunning it updates nothing that already
// exists.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bakehouse/internal/config"
	"bakehouse/internal/db"
	"bakehouse/models"
)

func main() {
	password := flag.String("password", "bakehouse", "initial password for seeded accounts")
	flag.Parse()

	if err := run(*password); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("database seeded")
}

func run(password string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	return database.Transaction(func(tx *gorm.DB) error {
		roles, err := seedRoles(tx)
		if err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if err := seedUsers(tx, roles, password); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		categories, err := seedCategories(tx)
		if err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		materials, err := seedRawMaterials(tx)
		if err != nil {
			return fmt.Errorf("seed raw materials: %w", err)
		}
		if err := seedProducts(tx, categories, materials); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		if err := seedSampleOrder(tx); err != nil {
			return fmt.Errorf("seed sample order: %w", err)
		}
		return nil
	})
}

// seedSampleOrder leaves one pending order in the queue so the dashboard and
// order screens are not empty on first login.
func seedSampleOrder(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.Order{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var customer models.User
	if err := tx.Where("username = ?", "staff1").First(&customer).Error; err != nil {
		return err
	}
	var bread models.Product
	if err := tx.Where("sku = ?", "BREAD001").First(&bread).Error; err != nil {
		return err
	}

	quantity := 2
	total := bread.Price.Mul(decimal.NewFromInt(int64(quantity)))
	order := models.Order{
		OrderNumber: "ORD000000000000001",
		CustomerID:  customer.ID,
		OrderType:   models.TypeRegular,
		Status:      models.StatusPending,
		TotalAmount: total,
		Items: []models.OrderItem{{
			ProductID:  bread.ID,
			Quantity:   quantity,
			UnitPrice:  bread.Price,
			TotalPrice: total,
		}},
	}
	return tx.Create(&order).Error
}

func seedRoles(tx *gorm.DB) (map[string]models.Role, error) {
	descriptions := map[string]string{
		models.RoleAdmin:    "Full administrative access",
		models.RoleBaker:    "Production and inventory access",
		models.RoleStaff:    "Front-of-house access",
		models.RoleCustomer: "Customer with order access",
	}
	roles := make(map[string]models.Role, len(descriptions))
	for name, description := range descriptions {
		role := models.Role{Name: name}
		err := tx.Where("name = ?", name).
			Attrs(models.Role{Description: description}).
			FirstOrCreate(&role).Error
		if err != nil {
			return nil, err
		}
		roles[name] = role
	}
	return roles, nil
}

func seedUsers(tx *gorm.DB, roles map[string]models.Role, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []models.User{
		{Username: "admin", Email: "admin@bakehouse.app", FirstName: "Ada", LastName: "Baker", RoleID: roles[models.RoleAdmin].ID},
		{Username: "baker1", Email: "baker@bakehouse.app", FirstName: "Henri", LastName: "Crust", RoleID: roles[models.RoleBaker].ID},
		{Username: "staff1", Email: "staff@bakehouse.app", FirstName: "Nora", LastName: "Field", RoleID: roles[models.RoleStaff].ID},
	}
	for _, user := range users {
		record := models.User{Username: user.Username}
		user.PasswordHash = string(hashed)
		user.Active = true
		err := tx.Where("username = ?", user.Username).
			Attrs(user).
			FirstOrCreate(&record).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func seedCategories(tx *gorm.DB) (map[string]models.Category, error) {
	descriptions := map[string]string{
		"Breads":    "Fresh baked breads and loaves",
		"Pastries":  "Sweet and savory pastries",
		"Cakes":     "Custom cakes and desserts",
		"Beverages": "Coffee, tea, and other drinks",
	}
	categories := make(map[string]models.Category, len(descriptions))
	for name, description := range descriptions {
		category := models.Category{Name: name}
		err := tx.Where("name = ?", name).
			Attrs(models.Category{Description: description, Active: true}).
			FirstOrCreate(&category).Error
		if err != nil {
			return nil, err
		}
		categories[name] = category
	}
	return categories, nil
}

func seedRawMaterials(tx *gorm.DB) (map[string]models.RawMaterial, error) {
	seedData := []struct {
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
	}

	materials := make(map[string]models.RawMaterial, len(seedData))
	for _, m := range seedData {
		material := models.RawMaterial{Name: m.name}
		err := tx.Where("name = ?", m.name).
			Attrs(models.RawMaterial{
				UnitOfMeasure: m.unit,
				CostPerUnit:   decimal.RequireFromString(m.cost),
				CurrentStock:  decimal.RequireFromString(m.stock),
				MinStockLevel: decimal.RequireFromString(m.min),
				ReorderPoint:  decimal.RequireFromString(m.reorder),
				Supplier:      m.supplier,
				Location:      m.location,
				Active:        true,
			}).
			FirstOrCreate(&material).Error
		if err != nil {
			return nil, err
		}
		materials[m.name] = material
	}
	return materials, nil
}

func seedProducts(tx *gorm.DB, categories map[string]models.Category, materials map[string]models.RawMaterial) error {
	type recipeLine struct {
		material string
		quantity string
		unit     string
	}
	products := []struct {
		name, sku, price, cost, category string
		prepMinutes                      int
		finishedStock                    int
		recipe                           []recipeLine
	}{
		{
			name: "Artisan Sourdough", sku: "BREAD001", price: "6.50", cost: "2.50", category: "Breads", prepMinutes: 180,
			recipe: []recipeLine{
				{"All-Purpose Flour", "0.5", "kg"},
				{"Salt", "0.01", "kg"},
				{"Yeast", "0.005", "kg"},
			},
		},
		{
			name: "Butter Croissant", sku: "PAST001", price: "3.50", cost: "1.20", category: "Pastries", prepMinutes: 45,
			recipe: []recipeLine{
				{"All-Purpose Flour", "0.25", "kg"},
				{"Butter", "0.15", "kg"},
				{"Milk", "0.05", "l"},
			},
		},
		{
			name: "Chocolate Cake", sku: "CAKE001", price: "25.00", cost: "8.00", category: "Cakes", prepMinutes: 120,
			recipe: []recipeLine{
				{"All-Purpose Flour", "0.4", "kg"},
				{"Sugar", "0.3", "kg"},
				{"Butter", "0.2", "kg"},
				{"Eggs", "4", "pieces"},
				{"Chocolate Chips", "0.2", "kg"},
			},
		},
		{
			// Sold straight from finished stock, no recipe.
			name: "Fresh Coffee", sku: "BEV001", price: "2.50", cost: "0.50", category: "Beverages",
			finishedStock: 50,
		},
	}

	for _, p := range products {
		product := models.Product{SKU: p.sku}
		err := tx.Where("sku = ?", p.sku).
			Attrs(models.Product{
				Name:                p.name,
				Price:               decimal.RequireFromString(p.price),
				Cost:                decimal.RequireFromString(p.cost),
				CategoryID:          categories[p.category].ID,
				Active:              true,
				RequiresPreparation: p.prepMinutes > 0,
				PreparationTime:     p.prepMinutes,
			}).
			FirstOrCreate(&product).Error
		if err != nil {
			return err
		}

		for _, line := range p.recipe {
			material, ok := materials[line.material]
			if !ok {
				return fmt.Errorf("recipe for %s references unknown material %q", p.name, line.material)
			}
			record := models.RecipeLine{ProductID: product.ID, RawMaterialID: material.ID}
			err := tx.Where("product_id = ? AND raw_material_id = ?", product.ID, material.ID).
				Attrs(models.RecipeLine{
					QuantityPerUnit: decimal.RequireFromString(line.quantity),
					UnitOfMeasure:   line.unit,
				}).
				FirstOrCreate(&record).Error
			if err != nil {
				return err
			}
		}

		inventory := models.Inventory{ProductID: product.ID}
		err = tx.Where("product_id = ?", product.ID).
			Attrs(models.Inventory{Quantity: p.finishedStock, MinStockLevel: 10, MaxStockLevel: 100}).
			FirstOrCreate(&inventory).Error
		if err != nil {
			return err
		}
	}
	return nil
}
