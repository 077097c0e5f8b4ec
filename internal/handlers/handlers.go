package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"bakehouse/internal/insights"
	"bakehouse/internal/inventory"
	applog "bakehouse/internal/log"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	calculator     *inventory.Calculator
	graph          *inventory.RecipeGraph
	lifecycle      *inventory.Lifecycle
	generator      *insights.Generator
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
	if db != nil {
		calculator = inventory.NewCalculator(db)
		graph = inventory.NewRecipeGraph(db)
		lifecycle = inventory.NewLifecycle(db)
		generator = insights.NewGenerator(db)
	} else {
		calculator = nil
		graph = nil
		lifecycle = nil
		generator = nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
