package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"costume-voting-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局数据库连接
var DB *gorm.DB

// DefaultCategories 默认奖项，初始化和purge后重新播种
var DefaultCategories = []string{
	"Most Realistic Costume",
	"Funniest Costume",
	"Scariest Costume",
	"Best Homemade Costume",
	"Least Effort Costume",
	"Classic Halloween Costume",
	"Cutest Costume",
}

// InitDB 初始化数据库连接
func InitDB() error {
	// 配置GORM
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	dbPath := GetEnv("DB_PATH", "halloween.db")

	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: newLogger,
		// 唯一约束冲突转换为gorm.ErrDuplicatedKey，
		// Finalize的重复投票检查依赖这一点
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %v", err)
	}

	// 自动迁移模型
	if err := Migrate(DB); err != nil {
		return fmt.Errorf("迁移模型失败: %v", err)
	}

	if err := Seed(DB); err != nil {
		return fmt.Errorf("播种默认数据失败: %v", err)
	}

	log.Println("数据库连接和迁移成功")
	return nil
}

// Migrate 执行模型迁移
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Entry{},
		&models.Category{},
		&models.Setting{},
		&models.Vote{},
		&models.VoteItem{},
	)
}

// Seed 播种默认类别和voting_enabled设置（仅在为空时）
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, name := range DefaultCategories {
			if err := db.Create(&models.Category{Name: name, Enabled: true}).Error; err != nil {
				return err
			}
		}
	}

	var setting models.Setting
	err := db.Where("key = ?", SettingVotingEnabled).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.Setting{Key: SettingVotingEnabled, Value: "0"}).Error
	}
	return err
}

// Purge 清空全部数据并重新播种默认值。删除顺序满足外键约束。
func Purge(db *gorm.DB) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.VoteItem{},
			&models.Vote{},
			&models.Entry{},
			&models.Category{},
			&models.Setting{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return Seed(db)
}

// CloseDB 关闭数据库连接
func CloseDB() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("获取数据库连接失败: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("关闭数据库连接失败: %v", err)
		return
	}

	log.Println("数据库连接已关闭")
}

// GetEnv 获取环境变量值或使用默认值
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
