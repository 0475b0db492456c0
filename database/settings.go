package database

import (
	"costume-voting-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingVotingEnabled 投票开关的设置键
const SettingVotingEnabled = "voting_enabled"

// GetSetting 读取设置值，不存在时返回默认值。
// 每次请求都从数据库读取，不做内存缓存，避免多进程下的过期问题。
func GetSetting(db *gorm.DB, key, defaultValue string) string {
	var setting models.Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		return defaultValue
	}
	return setting.Value
}

// SetSetting 写入设置值（upsert）
func SetSetting(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// VotingEnabled 判断投票是否开放
func VotingEnabled(db *gorm.DB) bool {
	return GetSetting(db, SettingVotingEnabled, "0") == "1"
}
