package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bakehouse/models"
)

var (
	// ErrUnknownProduct signals a referential integrity violation: the
	// requested product row does not exist.
	ErrUnknownProduct = errors.New("inventory: unknown product")

	// ErrUnknownRawMaterial signals a recipe line pointing at a raw
	// material row that does not exist.
	ErrUnknownRawMaterial = errors.New("inventory: unknown raw material")

	// ErrUnknownOrder signals a lifecycle transition for a missing order.
	ErrUnknownOrder = errors.New("inventory: unknown order")
)

// InsufficientFinishedStockError is returned when a stock-only product is
// requested beyond its finished-goods inventory.
type InsufficientFinishedStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientFinishedStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient finished stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InsufficientRawMaterialError is returned when at least one ingredient's
// stock is below the scaled recipe requirement. It names the first
// unsatisfied ingredient and the missing amount.
type InsufficientRawMaterialError struct {
	ProductID       uint
	RawMaterialID   uint
	RawMaterialName string
	Shortfall       decimal.Decimal
}

func (e *InsufficientRawMaterialError) Error() string {
	return fmt.Sprintf("inventory: insufficient raw material %q (%d) for product %d: short %s",
		e.RawMaterialName, e.RawMaterialID, e.ProductID, e.Shortfall.String())
}

// InvalidTransitionError is returned when the requested order status is not
// reachable from the order's current status.
type InvalidTransitionError struct {
	OrderID uint
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("inventory: order %d cannot transition from %s to %s", e.OrderID, e.From, e.To)
}
