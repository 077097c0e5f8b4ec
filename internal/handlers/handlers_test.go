package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/models"
)

// withTestEnvironment swaps the package-level dependencies for an in-memory
// database and a fresh session manager, restoring the originals afterwards.
func withTestEnvironment(t *testing.T) (*gorm.DB, *scs.SessionManager) {
	t.Helper()
	originalDB := database
	originalSM := sessionManager

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
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

	sm := scs.New()
	Configure(sm, db)

	t.Cleanup(func() {
		Configure(originalSM, originalDB)
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, sm
}

func authenticateRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint, role string) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, userID)
	sm.Put(req.Context(), sessionUserRoleKey, role)
	return req
}

func createTestUser(t *testing.T, db *gorm.DB, username, roleName string) models.User {
	t.Helper()
	var role models.Role
	err := db.Where("name = ?", roleName).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = models.Role{Name: roleName}
		err = db.Create(&role).Error
	}
	if err != nil {
		t.Fatalf("failed to prepare role %q: %v", roleName, err)
	}

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		RoleID:       role.ID,
		Active:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}
