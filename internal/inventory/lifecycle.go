package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bakehouse/models"
)

// transitions maps each lifecycle state to the states reachable from it.
// Cancellation is reachable from every non-terminal state; delivered and
// cancelled are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:       {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:     {models.StatusInPreparation, models.StatusCancelled},
	models.StatusInPreparation: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:         {models.StatusDelivered, models.StatusCancelled},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lifecycle drives order status transitions and their stock side effects.
// Confirming an order consumes materials for every item; cancelling a
// confirmed order restores them. The status write and the stock mutations
// commit or roll back as one transaction.
type Lifecycle struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewLifecycle builds a Lifecycle over the given database handle.
func NewLifecycle(db *gorm.DB) *Lifecycle {
	return &Lifecycle{db: db, ledger: NewLedger(db)}
}

// Transition moves the order to next, applying stock side effects where the
// transition demands them. On any failure the order keeps its prior status
// and all stock rows are left unchanged.
func (lc *Lifecycle) Transition(ctx context.Context, orderID uint, next models.OrderStatus) error {
	if !models.ValidStatus(string(next)) {
		return fmt.Errorf("inventory: invalid order status %q", next)
	}

	return lc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := withRowLock(tx).Preload("Items").First(&order, orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownOrder
			}
			return fmt.Errorf("load order %d: %w", orderID, err)
		}

		if !CanTransition(order.Status, next) {
			return &InvalidTransitionError{OrderID: orderID, From: order.Status, To: next}
		}

		switch {
		case next == models.StatusConfirmed:
			for _, item := range order.Items {
				if err := lc.ledger.ConsumeTx(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case next == models.StatusCancelled && order.Status == models.StatusConfirmed:
			// Only a confirmed order has consumed anything to give back.
			for _, item := range order.Items {
				if err := lc.ledger.RestoreTx(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return fmt.Errorf("update order %d status: %w", orderID, err)
		}
		return nil
	})
}
