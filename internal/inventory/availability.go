package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bakehouse/models"
)

// Calculator computes how many units of a product can currently be
// fulfilled, either from finished-goods stock or by manufacturing from raw
// materials via the recipe graph.
type Calculator struct {
	db    *gorm.DB
	graph *RecipeGraph
}

// NewCalculator builds a Calculator over the given database handle.
func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{db: db, graph: NewRecipeGraph(db)}
}

// MaxOrderable returns the maximum quantity of the product that can be
// fulfilled right now. Finished-goods stock takes precedence: ready-made
// units ship with no manufacturing lag, so a positive finished quantity is
// returned as-is even when the recipe could support more. Otherwise the
// result is the bottleneck across recipe lines, the minimum of
// floor(stock / per-unit requirement). No recipe and no stock means zero.
func (c *Calculator) MaxOrderable(ctx context.Context, productID uint) (int, error) {
	finished, err := c.finishedStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	if finished > 0 {
		return finished, nil
	}

	lines, err := c.graph.LinesFor(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}

	max := math.MaxInt
	for _, line := range lines {
		stock := materialStock(line)
		if stock.Sign() <= 0 {
			return 0, nil
		}
		if line.QuantityPerUnit.Sign() <= 0 {
			continue
		}
		producible := int(stock.Div(line.QuantityPerUnit).IntPart())
		if producible < max {
			max = producible
		}
	}
	if max == math.MaxInt {
		return 0, nil
	}
	return max, nil
}

// CanFulfill reports whether the requested quantity can be fulfilled. For a
// stock-only product this is a finished-stock comparison; for a recipe
// product every line must hold simultaneously, not just the bottleneck one.
func (c *Calculator) CanFulfill(ctx context.Context, productID uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return quantity == 0, nil
	}

	lines, err := c.graph.LinesFor(ctx, productID)
	if err != nil {
		return false, err
	}

	if len(lines) == 0 {
		finished, err := c.finishedStock(ctx, productID)
		if err != nil {
			return false, err
		}
		return finished >= quantity, nil
	}

	factor := decimal.NewFromInt(int64(quantity))
	for _, line := range lines {
		needed := line.QuantityPerUnit.Mul(factor)
		if materialStock(line).Cmp(needed) < 0 {
			return false, nil
		}
	}
	return true, nil
}

// finishedStock reads the finished-goods quantity for a product. A missing
// inventory row reads as zero, not an error.
func (c *Calculator) finishedStock(ctx context.Context, productID uint) (int, error) {
	var inv models.Inventory
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load finished stock for product %d: %w", productID, err)
	}
	return inv.Quantity, nil
}
