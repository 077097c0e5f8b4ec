package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products on the storefront (breads, pastries, cakes, ...).
type Category struct {
	gorm.Model
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	Products    []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Product is a sellable bakery item. A product with recipe lines can be
// manufactured on demand from raw materials; one without is sold purely
// from finished-goods inventory.
type Product struct {
	gorm.Model
	Name                string          `gorm:"not null" json:"name"`
	Description         string          `gorm:"type:text" json:"description"`
	SKU                 string          `gorm:"uniqueIndex" json:"sku"`
	Price               decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Cost                decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost"`
	CategoryID          uint            `gorm:"not null" json:"category_id"`
	Category            *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Active              bool            `gorm:"not null;default:true" json:"active"`
	RequiresPreparation bool            `gorm:"not null;default:false" json:"requires_preparation"`
	PreparationTime     int             `json:"preparation_time"` // minutes
	Recipe              []RecipeLine    `gorm:"foreignKey:ProductID" json:"recipe,omitempty"`
}
