package handlers

import (
	"net/http"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// InsightsResource serves the active insights and, on POST, regenerates
// them from current order and stock data.
func InsightsResource(w http.ResponseWriter, r *http.Request) {
	if database == nil || generator == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		insights, err := generator.Active(ctx)
		if err != nil {
			applog.Error(ctx, "failed to load insights", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to load insights")
			return
		}
		if insights == nil {
			insights = []models.Insight{}
		}
		writeJSON(w, http.StatusOK, insights)

	case http.MethodPost:
		if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
			return
		}
		insights, err := generator.Generate(ctx)
		if err != nil {
			applog.Error(ctx, "failed to generate insights", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to generate insights")
			return
		}
		if insights == nil {
			insights = []models.Insight{}
		}
		writeJSON(w, http.StatusOK, insights)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
