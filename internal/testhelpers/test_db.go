package testhelpers

import (
	"fmt"
	"testing"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}
	migrateSchema = func(db *gorm.DB) error {
		return db.AutoMigrate(
			&models.Company{},
			&models.Candidate{},
			&models.Test{},
			&models.TestCandidate{},
			&models.Instance{},
			&models.Report{},
			&models.ChatMessage{},
		)
	}
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// SeedTenant inserts a company with one test and one candidate, returning all
// three. Most orchestration tests start from this shape.
func SeedTenant(t *testing.T, db *gorm.DB) (*models.Company, *models.Test, *models.Candidate) {
	t.Helper()

	company := &models.Company{Name: "Acme " + t.Name(), Domain: "acme.test"}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to seed company: %v", err)
	}
	test := &models.Test{
		Name:          "Backend Screen",
		CompanyID:     company.ID,
		EnableTimer:   true,
		TimerDuration: 10,
		InitialPrompt: "Walk us through the starter project.",
	}
	if err := db.Create(test).Error; err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}
	candidate := &models.Candidate{
		Name:      "Jane Smith",
		Email:     fmt.Sprintf("jane+%s@example.com", t.Name()),
		CompanyID: company.ID,
	}
	if err := db.Create(candidate).Error; err != nil {
		t.Fatalf("failed to seed candidate: %v", err)
	}
	return company, test, candidate
}
