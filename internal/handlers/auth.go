package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUserNameKey      = "auth:user:name"
	sessionUserRoleKey      = "auth:user:role"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type sessionResponse struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func findUserByUsername(r *http.Request, username string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(r.Context()).
		Preload("Role").
		Where("lower(username) = ?", strings.ToLower(username)).
		First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate verifies the provided credentials and populates the session.
func authenticate(w http.ResponseWriter, r *http.Request, username, password string) bool {
	if sessionManager == nil {
		http.Error(w, "authentication not available", http.StatusServiceUnavailable)
		return false
	}

	user, err := findUserByUsername(r, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(r.Context(), "login attempt for unknown user", "username", username)
		} else {
			applog.Error(r.Context(), "failed to look up user", "error", err)
		}
		return false
	}

	if !user.Active {
		applog.Debug(r.Context(), "login attempt for deactivated user", "user", user.ID)
		return false
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return false
	}

	now := time.Now().UTC()
	if err := database.WithContext(r.Context()).Model(user).Update("last_login", now).Error; err != nil {
		applog.Error(r.Context(), "failed to record last login", "error", err, "user", user.ID)
	}

	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, user.ID)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Username)
	if user.Role != nil {
		sessionManager.Put(r.Context(), sessionUserRoleKey, user.Role.Name)
	}
	return true
}

// Login authenticates a user from a JSON credentials payload.
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if !authenticate(w, r, strings.TrimSpace(payload.Username), payload.Password) {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   sessionManager.Get(r.Context(), sessionUserIDKey).(uint),
		Username: sessionManager.GetString(r.Context(), sessionUserNameKey),
		Role:     sessionManager.GetString(r.Context(), sessionUserRoleKey),
	})
}

// Logout destroys the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if err := sessionManager.Destroy(r.Context()); err != nil {
		applog.Error(r.Context(), "failed to destroy session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Signup registers a new customer account.
func Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var payload signupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	username := strings.TrimSpace(payload.Username)
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if username == "" || email == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	var role models.Role
	err := database.WithContext(r.Context()).Where("name = ?", models.RoleCustomer).First(&role).Error
	if err != nil {
		applog.Error(r.Context(), "customer role missing", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		applog.Error(r.Context(), "failed to hash password", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		Phone:        strings.TrimSpace(payload.Phone),
		RoleID:       role.ID,
		Active:       true,
	}
	if err := database.WithContext(r.Context()).Create(&user).Error; err != nil {
		applog.Debug(r.Context(), "signup rejected", "error", err, "username", username)
		writeJSONError(w, http.StatusConflict, "username or email already taken")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{UserID: user.ID, Username: user.Username, Role: models.RoleCustomer})
}

func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	if !sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) {
		return 0, false
	}
	id, ok := sessionManager.Get(r.Context(), sessionUserIDKey).(uint)
	return id, ok
}

func currentRole(r *http.Request) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.GetString(r.Context(), sessionUserRoleKey)
}

// RequireAuthentication wraps a handler and rejects unauthenticated requests.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole rejects the request unless the session's role is one of the
// given names. Handlers call it after RequireAuthentication.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	role := currentRole(r)
	for _, allowed := range roles {
		if role == allowed {
			return true
		}
	}
	applog.Debug(r.Context(), "role denied", "role", role, "path", r.URL.Path)
	writeJSONError(w, http.StatusForbidden, "forbidden")
	return false
}
