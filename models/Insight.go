package models

import "gorm.io/gorm"

// Insight is a rule-based operational observation surfaced on the dashboard
// (demand forecasts, restock suggestions, revenue trends). These are simple
// statistical generators, not model output.
type Insight struct {
	gorm.Model
	Type            string  `gorm:"not null" json:"type"` // demand_forecast, inventory_optimization, ...
	Title           string  `gorm:"not null" json:"title"`
	Description     string  `gorm:"type:text;not null" json:"description"`
	ConfidenceScore float64 `json:"confidence_score"`
	Data            string  `gorm:"type:text" json:"data"` // JSON payload
	Active          bool    `gorm:"not null;default:true" json:"active"`
}
