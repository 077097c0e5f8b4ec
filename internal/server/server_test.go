package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/internal/handlers"
	"bakehouse/models"
)

func newServerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	err = db.AutoMigrate(
		&models.Role{}, &models.User{},
		&models.Category{}, &models.Product{},
		&models.RawMaterial{}, &models.RecipeLine{}, &models.Inventory{},
		&models.Order{}, &models.OrderItem{},
		&models.StaffSchedule{}, &models.Insight{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestNewAppliesSessionDefaults(t *testing.T) {
	db := newServerTestDB(t)

	role := models.Role{Name: models.RoleAdmin}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("failed to create role: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Username:     "maria",
		Email:        "maria@example.com",
		PasswordHash: string(hash),
		FirstName:    "Maria",
		LastName:     "Baker",
		RoleID:       role.ID,
		Active:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	srv, err := New(Config{Addr: ":8080", Session: SessionConfig{CookieSecure: true}, Database: db})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})

	if srv.httpServer.Addr != ":8080" {
		t.Fatalf("expected server addr :8080, got %q", srv.httpServer.Addr)
	}
	if srv.httpServer.Handler == nil {
		t.Fatal("expected handler to be configured")
	}

	body, _ := json.Marshal(map[string]string{"username": "maria", "password": "password123"})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Fatal("expected a session cookie on successful login")
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	db := newServerTestDB(t)
	srv, err := New(Config{Addr: ":0", Database: db})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil)
	})

	for _, path := range []string{
		"/app/api/dashboard",
		"/app/api/products",
		"/app/api/orders",
		"/app/api/raw-materials",
		"/app/api/insights",
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without session, got %d", path, rr.Code)
		}
	}
}
