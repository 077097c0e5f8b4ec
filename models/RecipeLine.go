package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecipeLine is one ingredient of a product's bill of materials:
// manufacturing a single unit of the product consumes QuantityPerUnit of
// the referenced raw material. QuantityPerUnit must be positive.
type RecipeLine struct {
	gorm.Model
	ProductID       uint            `gorm:"not null;index" json:"product_id"`
	RawMaterialID   uint            `gorm:"not null;index" json:"raw_material_id"`
	QuantityPerUnit decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity_per_unit"`
	UnitOfMeasure   string          `gorm:"not null" json:"unit_of_measure"`
	RawMaterial     *RawMaterial    `gorm:"foreignKey:RawMaterialID" json:"raw_material,omitempty"`
}
