package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawMaterial is an ingredient held in bulk storage. CurrentStock is kept
// as a fixed-point decimal so fractional units (0.15 kg of butter) survive
// arbitrarily many consume/restore cycles without rounding drift.
//
// CurrentStock must never go negative; the inventory ledger rejects any
// consumption that would overdraw it.
type RawMaterial struct {
	gorm.Model
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	UnitOfMeasure   string          `gorm:"not null;default:units" json:"unit_of_measure"` // kg, l, pieces, ...
	CostPerUnit     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost_per_unit"`
	Supplier        string          `json:"supplier"`
	SupplierContact string          `json:"supplier_contact"`
	Location        string          `gorm:"default:Storage" json:"location"`
	CurrentStock    decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"current_stock"`
	MinStockLevel   decimal.Decimal `gorm:"type:decimal(10,3);default:10" json:"min_stock_level"`
	ReorderPoint    decimal.Decimal `gorm:"type:decimal(10,3);default:5" json:"reorder_point"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	LastRestocked   *time.Time      `json:"last_restocked,omitempty"`
}

// LowStock reports whether the material has fallen to its minimum level.
func (m *RawMaterial) LowStock() bool {
	return m.CurrentStock.Cmp(m.MinStockLevel) <= 0
}

// CriticalStock reports whether the material has fallen to its reorder point.
func (m *RawMaterial) CriticalStock() bool {
	return m.CurrentStock.Cmp(m.ReorderPoint) <= 0
}
