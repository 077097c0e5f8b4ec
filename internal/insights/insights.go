// Package insights derives operational recommendations from order history
// and stock levels. The generators are plain statistics over the database;
// each run refreshes the active insight of its type rather than piling up
// duplicates.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"bakehouse/models"
)

// Generator produces and persists insights.
type Generator struct {
	db *gorm.DB
}

func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{db: db}
}

// Generate runs every rule and upserts the results. It returns the insights
// produced by this run; rules that have nothing to say produce no row.
func (g *Generator) Generate(ctx context.Context) ([]models.Insight, error) {
	var produced []models.Insight

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rules := []func(tx *gorm.DB) (*models.Insight, error){
			g.demandForecast,
			g.restockRecommendation,
			g.peakHours,
			g.topSeller,
		}
		for _, rule := range rules {
			insight, err := rule(tx)
			if err != nil {
				return err
			}
			if insight == nil {
				continue
			}
			if err := upsert(tx, insight); err != nil {
				return err
			}
			produced = append(produced, *insight)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating insights: %w", err)
	}
	return produced, nil
}

// Active returns all active insights, newest first.
func (g *Generator) Active(ctx context.Context) ([]models.Insight, error) {
	var insights []models.Insight
	err := g.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at desc").
		Find(&insights).Error
	if err != nil {
		return nil, fmt.Errorf("loading insights: %w", err)
	}
	return insights, nil
}

// upsert replaces the active insight of the same type, or creates one.
func upsert(tx *gorm.DB, insight *models.Insight) error {
	var existing models.Insight
	err := tx.Where("type = ? AND active = ?", insight.Type, true).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Updates(map[string]any{
			"title":            insight.Title,
			"description":      insight.Description,
			"confidence_score": insight.ConfidenceScore,
			"data":             insight.Data,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(insight).Error
}

func recentOrders(tx *gorm.DB, days int) ([]models.Order, error) {
	var orders []models.Order
	since := time.Now().AddDate(0, 0, -days)
	err := tx.Where("created_at >= ? AND status <> ?", since, models.StatusCancelled).
		Find(&orders).Error
	return orders, err
}

func (g *Generator) demandForecast(tx *gorm.DB) (*models.Insight, error) {
	orders, err := recentOrders(tx, 30)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	avgDaily := float64(len(orders)) / 30

	payload, _ := json.Marshal(map[string]any{
		"avg_daily_orders": avgDaily,
		"period_days":      30,
	})
	return &models.Insight{
		Type:  "demand_forecast",
		Title: "Daily Order Forecast",
		Description: fmt.Sprintf(
			"Based on recent trends, expect approximately %d orders per day. Consider adjusting staff schedules accordingly.",
			int(avgDaily)),
		ConfidenceScore: 0.85,
		Data:            string(payload),
		Active:          true,
	}, nil
}

func (g *Generator) restockRecommendation(tx *gorm.DB) (*models.Insight, error) {
	var rows []models.Inventory
	if err := tx.Preload("Product").Find(&rows).Error; err != nil {
		return nil, err
	}
	var names []string
	low := 0
	for _, row := range rows {
		if !row.LowStock() {
			continue
		}
		low++
		if len(names) < 3 && row.Product != nil {
			names = append(names, row.Product.Name)
		}
	}

	var materials []models.RawMaterial
	if err := tx.Where("active = ?", true).Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, material := range materials {
		if !material.LowStock() {
			continue
		}
		low++
		if len(names) < 3 {
			names = append(names, material.Name)
		}
	}
	if low == 0 {
		return nil, nil
	}

	payload, _ := json.Marshal(map[string]any{
		"low_stock_count": low,
		"items":           names,
	})
	return &models.Insight{
		Type:  "inventory_optimization",
		Title: "Inventory Restocking Recommendation",
		Description: fmt.Sprintf(
			"Low stock alert: %s. Consider restocking to maintain service levels.",
			strings.Join(names, ", ")),
		ConfidenceScore: 0.95,
		Data:            string(payload),
		Active:          true,
	}, nil
}

func (g *Generator) peakHours(tx *gorm.DB) (*models.Insight, error) {
	orders, err := recentOrders(tx, 30)
	if err != nil || len(orders) == 0 {
		return nil, err
	}

	counts := make(map[int]int)
	for _, order := range orders {
		counts[order.CreatedAt.Hour()]++
	}
	peakHour, peakCount := 0, 0
	for hour, count := range counts {
		if count > peakCount || (count == peakCount && hour < peakHour) {
			peakHour, peakCount = hour, count
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"peak_hour":   peakHour,
		"order_count": peakCount,
	})
	return &models.Insight{
		Type:  "peak_hours_analysis",
		Title: "Peak Hours Optimization",
		Description: fmt.Sprintf(
			"Peak ordering time is %d:00 with %d orders. Ensure adequate staffing during this period.",
			peakHour, peakCount),
		ConfidenceScore: 0.80,
		Data:            string(payload),
		Active:          true,
	}, nil
}

func (g *Generator) topSeller(tx *gorm.DB) (*models.Insight, error) {
	type productRevenue struct {
		ProductID uint
		Name      string
		Units     int
		Revenue   float64
	}

	var top productRevenue
	err := tx.Model(&models.OrderItem{}).
		Select("order_items.product_id as product_id, products.name as name, sum(order_items.quantity) as units, sum(order_items.total_price) as revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.StatusCancelled).
		Group("order_items.product_id, products.name").
		Order("revenue desc").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	if top.ProductID == 0 {
		return nil, nil
	}

	payload, _ := json.Marshal(map[string]any{
		"product_id": top.ProductID,
		"units_sold": top.Units,
		"revenue":    top.Revenue,
	})
	return &models.Insight{
		Type:  "revenue_trend",
		Title: "Top Selling Product",
		Description: fmt.Sprintf(
			"%s is your best seller with %d units sold. Keep it well stocked and consider featuring it prominently.",
			top.Name, top.Units),
		ConfidenceScore: 0.90,
		Data:            string(payload),
		Active:          true,
	}, nil
}
