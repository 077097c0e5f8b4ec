package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakehouse/models"
)

// Requirement is one raw material demand produced by scaling a recipe line.
type Requirement struct {
	RawMaterialID uint            `json:"raw_material_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitOfMeasure string          `json:"unit_of_measure"`
}

// RecipeGraph answers what raw materials, in what quantities, are needed to
// produce N units of a product. It never mutates stock.
type RecipeGraph struct {
	db *gorm.DB
}

// NewRecipeGraph builds a RecipeGraph over the given database handle.
func NewRecipeGraph(db *gorm.DB) *RecipeGraph {
	return &RecipeGraph{db: db}
}

// LinesFor returns the recipe lines of a product with their raw materials
// preloaded. A product with zero lines is stock-only. Missing products are
// reported as ErrUnknownProduct rather than an empty recipe.
func (g *RecipeGraph) LinesFor(ctx context.Context, productID uint) ([]models.RecipeLine, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("look up product %d: %w", productID, err)
	}
	if count == 0 {
		return nil, ErrUnknownProduct
	}

	var lines []models.RecipeLine
	err := g.db.WithContext(ctx).
		Preload("RawMaterial").
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("load recipe for product %d: %w", productID, err)
	}
	return lines, nil
}

// Requirements scales every recipe line of the product by quantity. It is a
// pure function of the current recipe configuration.
func (g *RecipeGraph) Requirements(ctx context.Context, productID uint, quantity int) ([]Requirement, error) {
	if quantity < 0 {
		return nil, errors.New("inventory: quantity must not be negative")
	}

	lines, err := g.LinesFor(ctx, productID)
	if err != nil {
		return nil, err
	}

	factor := decimal.NewFromInt(int64(quantity))
	requirements := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		req := Requirement{
			RawMaterialID: line.RawMaterialID,
			Quantity:      line.QuantityPerUnit.Mul(factor),
			UnitOfMeasure: line.UnitOfMeasure,
		}
		if line.RawMaterial != nil {
			req.Name = line.RawMaterial.Name
		}
		requirements = append(requirements, req)
	}
	return requirements, nil
}

// materialStock reads a line's raw material stock, treating a dangling
// reference as zero so availability fails closed instead of skipping the
// ingredient.
func materialStock(line models.RecipeLine) decimal.Decimal {
	if line.RawMaterial == nil {
		return decimal.Zero
	}
	return line.RawMaterial.CurrentStock
}
