package models

import (
	"time"

	"gorm.io/gorm"
)

// Inventory tracks finished-goods stock for a product: ready-made units that
// can be sold immediately, independent of raw material levels.
type Inventory struct {
	gorm.Model
	ProductID     uint       `gorm:"not null;uniqueIndex" json:"product_id"`
	Product       *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity      int        `gorm:"not null;default:0" json:"quantity"`
	MinStockLevel int        `gorm:"default:10" json:"min_stock_level"`
	MaxStockLevel int        `gorm:"default:100" json:"max_stock_level"`
	LastRestocked *time.Time `json:"last_restocked,omitempty"`
}

// LowStock reports whether finished stock has fallen to its minimum level.
func (i *Inventory) LowStock() bool {
	return i.Quantity <= i.MinStockLevel
}
