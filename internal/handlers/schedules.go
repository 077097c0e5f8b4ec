package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type scheduleRequest struct {
	StaffID   uint   `json:"staff_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Position  string `json:"position"`
	Notes     string `json:"notes"`
}

// ScheduleResource handles staff shift assignments.
func ScheduleResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/schedules"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listSchedules(w, r)
		case http.MethodPost:
			createSchedule(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	id := uint(idValue)

	switch r.Method {
	case http.MethodPut:
		updateSchedule(w, r, id)
	case http.MethodDelete:
		deleteSchedule(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseScheduleTimes(payload scheduleRequest) (time.Time, error) {
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return time.Time{}, err
	}
	for _, value := range []string{payload.StartTime, payload.EndTime} {
		if _, err := time.Parse("15:04", value); err != nil {
			return time.Time{}, err
		}
	}
	return date, nil
}

func listSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Preload("Staff").Order("date asc, start_time asc")
	if from := r.URL.Query().Get("from"); from != "" {
		date, err := time.Parse("2006-01-02", from)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		query = query.Where("date >= ?", date)
	}
	if staff := r.URL.Query().Get("staff_id"); staff != "" {
		query = query.Where("staff_id = ?", staff)
	}

	var schedules []models.StaffSchedule
	if err := query.Find(&schedules).Error; err != nil {
		applog.Error(ctx, "failed to list schedules", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load schedules")
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

func createSchedule(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var payload scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := parseScheduleTimes(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid date or time format")
		return
	}

	var staff models.User
	if err := database.WithContext(ctx).First(&staff, payload.StaffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusUnprocessableEntity, "unknown staff member")
			return
		}
		applog.Error(ctx, "failed to load staff member", "error", err, "id", payload.StaffID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create schedule")
		return
	}

	schedule := models.StaffSchedule{
		StaffID:   payload.StaffID,
		Date:      date,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		Position:  strings.TrimSpace(payload.Position),
		Notes:     strings.TrimSpace(payload.Notes),
	}
	if err := database.WithContext(ctx).Create(&schedule).Error; err != nil {
		applog.Error(ctx, "failed to create schedule", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create schedule")
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

func updateSchedule(w http.ResponseWriter, r *http.Request, id uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	var payload scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := parseScheduleTimes(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid date or time format")
		return
	}

	var schedule models.StaffSchedule
	if err := database.WithContext(ctx).First(&schedule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load schedule", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to load schedule")
		return
	}

	updates := map[string]any{
		"date":       date,
		"start_time": payload.StartTime,
		"end_time":   payload.EndTime,
		"position":   strings.TrimSpace(payload.Position),
		"notes":      strings.TrimSpace(payload.Notes),
	}
	if payload.StaffID != 0 {
		updates["staff_id"] = payload.StaffID
	}
	if err := database.WithContext(ctx).Model(&schedule).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update schedule", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to update schedule")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func deleteSchedule(w http.ResponseWriter, r *http.Request, id uint) {
	if !requireRole(w, r, models.RoleAdmin, models.RoleBaker) {
		return
	}
	ctx := r.Context()

	result := database.WithContext(ctx).Delete(&models.StaffSchedule{}, id)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete schedule", "error", result.Error, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete schedule")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
