package service

import (
	"fmt"
	"strings"
	"testing"

	"costume-voting-backend/database"
	"costume-voting-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database for one test.
// The named shared-cache DSN keeps every pooled connection on the same
// database; foreign keys are on so cascade and stale-reference behavior
// matches production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// enableVoting 打开投票开关
func enableVoting(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := database.SetSetting(db, database.SettingVotingEnabled, "1"); err != nil {
		t.Fatalf("Failed to enable voting: %v", err)
	}
}

// createCategory 创建一个启用的类别
func createCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	cat := models.Category{Name: name, Enabled: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return cat
}

// createEntry 创建一个参赛条目
func createEntry(t *testing.T, db *gorm.DB, first, last, costume string) models.Entry {
	t.Helper()
	entry := models.Entry{FirstName: first, LastName: last, CostumeName: costume}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("Failed to create entry: %v", err)
	}
	return entry
}
