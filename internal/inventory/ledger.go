package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bakehouse/models"
)

// Ledger applies and reverses material consumption as orders move through
// their lifecycle. Every mutation runs inside a database transaction: either
// all touched rows change or none do, and no partial consumption is ever
// visible to another transaction.
//
// The ledger provides no deduplication of its own. At-most-once invocation
// per status transition is the caller's responsibility.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds a Ledger over the given database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Consume decrements stock for quantity units of the product inside its own
// transaction. Stock-only products draw from finished-goods inventory;
// recipe products draw the scaled requirement from every ingredient.
func (l *Ledger) Consume(ctx context.Context, productID uint, quantity int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.ConsumeTx(tx, productID, quantity)
	})
}

// ConsumeTx is Consume running on a caller-owned transaction, so a status
// change and its stock mutation commit or roll back as one unit. Returning
// an error aborts the whole transaction.
func (l *Ledger) ConsumeTx(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("inventory: consume quantity must be positive, got %d", quantity)
	}

	lines, err := recipeLines(tx, productID)
	if err != nil {
		return err
	}

	if len(lines) == 0 {
		return consumeFinished(tx, productID, quantity)
	}

	// Lock every ingredient row up front, then verify the full recipe
	// before any decrement, so the first unsatisfied ingredient is named
	// and satisfied ones are untouched on failure.
	factor := decimal.NewFromInt(int64(quantity))
	materials := make([]models.RawMaterial, 0, len(lines))
	for _, line := range lines {
		material, err := lockRawMaterial(tx, line.RawMaterialID)
		if err != nil {
			return err
		}
		needed := line.QuantityPerUnit.Mul(factor)
		if material.CurrentStock.Cmp(needed) < 0 {
			return &InsufficientRawMaterialError{
				ProductID:       productID,
				RawMaterialID:   material.ID,
				RawMaterialName: material.Name,
				Shortfall:       needed.Sub(material.CurrentStock),
			}
		}
		materials = append(materials, material)
	}

	for i, line := range lines {
		needed := line.QuantityPerUnit.Mul(factor)
		remaining := materials[i].CurrentStock.Sub(needed)
		err := tx.Model(&materials[i]).Update("current_stock", remaining).Error
		if err != nil {
			return fmt.Errorf("consume raw material %d: %w", line.RawMaterialID, err)
		}
	}
	return nil
}

// Restore increments stock by the same quantities a successful consumption
// removed. It is unconditional: restoration reverses a prior consume, so no
// feasibility check applies and shortfalls cannot occur.
func (l *Ledger) Restore(ctx context.Context, productID uint, quantity int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.RestoreTx(tx, productID, quantity)
	})
}

// RestoreTx is Restore running on a caller-owned transaction. If a stock
// record has gone missing since the consumption, it is recreated at the
// restored quantity rather than dropping the adjustment.
func (l *Ledger) RestoreTx(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("inventory: restore quantity must be positive, got %d", quantity)
	}

	lines, err := recipeLines(tx, productID)
	if err != nil {
		return err
	}

	if len(lines) == 0 {
		return restoreFinished(tx, productID, quantity)
	}

	factor := decimal.NewFromInt(int64(quantity))
	for _, line := range lines {
		amount := line.QuantityPerUnit.Mul(factor)
		material, err := lockRawMaterial(tx, line.RawMaterialID)
		if err != nil {
			if !errors.Is(err, ErrUnknownRawMaterial) {
				return err
			}
			recreated := models.RawMaterial{
				Model:         gorm.Model{ID: line.RawMaterialID},
				Name:          fmt.Sprintf("material %d", line.RawMaterialID),
				UnitOfMeasure: line.UnitOfMeasure,
				CurrentStock:  amount,
			}
			if err := tx.Create(&recreated).Error; err != nil {
				return fmt.Errorf("recreate raw material %d: %w", line.RawMaterialID, err)
			}
			continue
		}
		err = tx.Model(&material).Update("current_stock", material.CurrentStock.Add(amount)).Error
		if err != nil {
			return fmt.Errorf("restore raw material %d: %w", line.RawMaterialID, err)
		}
	}
	return nil
}

func consumeFinished(tx *gorm.DB, productID uint, quantity int) error {
	inv, err := lockInventory(tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &InsufficientFinishedStockError{ProductID: productID, Requested: quantity}
		}
		return err
	}
	if inv.Quantity < quantity {
		return &InsufficientFinishedStockError{
			ProductID: productID,
			Requested: quantity,
			Available: inv.Quantity,
		}
	}
	if err := tx.Model(&inv).Update("quantity", inv.Quantity-quantity).Error; err != nil {
		return fmt.Errorf("consume finished stock for product %d: %w", productID, err)
	}
	return nil
}

func restoreFinished(tx *gorm.DB, productID uint, quantity int) error {
	inv, err := lockInventory(tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created := models.Inventory{ProductID: productID, Quantity: quantity}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("recreate inventory for product %d: %w", productID, err)
			}
			return nil
		}
		return err
	}
	if err := tx.Model(&inv).Update("quantity", inv.Quantity+quantity).Error; err != nil {
		return fmt.Errorf("restore finished stock for product %d: %w", productID, err)
	}
	return nil
}

func recipeLines(tx *gorm.DB, productID uint) ([]models.RecipeLine, error) {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("look up product %d: %w", productID, err)
	}
	if count == 0 {
		return nil, ErrUnknownProduct
	}

	// Materials are locked in raw_material_id order so concurrent
	// consumptions of products sharing ingredients cannot deadlock.
	var lines []models.RecipeLine
	err := tx.Where("product_id = ?", productID).Order("raw_material_id asc").Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("load recipe for product %d: %w", productID, err)
	}
	return lines, nil
}

func lockRawMaterial(tx *gorm.DB, id uint) (models.RawMaterial, error) {
	var material models.RawMaterial
	err := withRowLock(tx).First(&material, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return material, ErrUnknownRawMaterial
		}
		return material, fmt.Errorf("lock raw material %d: %w", id, err)
	}
	return material, nil
}

func lockInventory(tx *gorm.DB, productID uint) (models.Inventory, error) {
	var inv models.Inventory
	err := withRowLock(tx).Where("product_id = ?", productID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, gorm.ErrRecordNotFound
		}
		return inv, fmt.Errorf("lock inventory for product %d: %w", productID, err)
	}
	return inv, nil
}

// withRowLock adds SELECT ... FOR UPDATE on engines with row-level locking.
// SQLite has no FOR UPDATE syntax and serializes writers on its own.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
