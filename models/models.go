package models

import (
	"strings"
	"time"
)

// Entry represents a submitted costume
type Entry struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	FirstName   string    `gorm:"not null" json:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name"`
	CostumeName string    `gorm:"not null" json:"costume_name"`
	PhotoPath   string    `json:"photo_path,omitempty"` // 照片文件名，可为空
	CreatedAt   time.Time `json:"created_at"`
}

// Category represents an award track (e.g. "Scariest Costume")
type Category struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	Enabled bool   `gorm:"not null;default:true" json:"enabled"`
}

// Setting 单行配置表，按key读写，不在内存缓存
type Setting struct {
	Key   string `gorm:"primarykey" json:"key"`
	Value string `json:"value"`
}

// Vote is one voter's finalized ballot.
// VoterKey holds the normalized (lowercased) full name and carries the unique
// index that makes the duplicate-voter check atomic at the storage layer.
type Vote struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	VoterFirst string    `gorm:"not null" json:"voter_first"`
	VoterLast  string    `gorm:"not null" json:"voter_last"`
	VoterKey   string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	Items      []VoteItem `gorm:"foreignKey:VoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// VoteItem is one voter's choice of entry within one category.
// 每个(vote, category)至多一条记录；父记录删除时级联删除
type VoteItem struct {
	ID         uint `gorm:"primarykey" json:"id"`
	VoteID     uint `gorm:"not null;uniqueIndex:idx_vote_category" json:"vote_id"`
	CategoryID uint `gorm:"not null;uniqueIndex:idx_vote_category;constraint:OnDelete:CASCADE" json:"category_id"`
	EntryID    uint `gorm:"not null;index" json:"entry_id"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Entry    Entry    `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"-"`
}

// NormalizeVoterKey builds the normalized duplicate-check key for a voter name.
func NormalizeVoterKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first)) + "|" + strings.ToLower(strings.TrimSpace(last))
}
