package service

import (
	"context"
	"errors"
	"time"

	"costume-voting-backend/models"

	"gorm.io/gorm"
)

// TallyRow 某一类别下单个条目的得票统计
type TallyRow struct {
	EntryID     uint   `json:"entry_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CostumeName string `json:"costume_name"`
	PhotoPath   string `json:"photo_path,omitempty"`
	Votes       int64  `json:"votes"`
}

// Leader 类别的领先者
type Leader struct {
	CostumeName string `json:"costume_name"`
	By          string `json:"by"`
	Votes       int64  `json:"votes"`
}

// AuditRow 审计视图的一行：一张选票在一个类别下的选择
type AuditRow struct {
	VoteID      uint      `json:"vote_id"`
	VoterFirst  string    `json:"voter_first"`
	VoterLast   string    `json:"voter_last"`
	VotedAt     time.Time `json:"voted_at"`
	Category    string    `json:"category"`
	CostumeName string    `json:"costume_name"`
	EntryFirst  string    `json:"entry_first"`
	EntryLast   string    `json:"entry_last"`
}

// CategoryTally 计算某类别下每个条目的得票数，包含零票条目。
// 排序：票数降序，并列时按服装名升序。
func (s *VoteService) CategoryTally(ctx context.Context, categoryID uint) ([]TallyRow, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rows []TallyRow
	err := s.db.WithContext(ctx).
		Table("entries").
		Select("entries.id AS entry_id, entries.first_name, entries.last_name, entries.costume_name, entries.photo_path, COUNT(vote_items.id) AS votes").
		Joins("LEFT JOIN vote_items ON vote_items.entry_id = entries.id AND vote_items.category_id = ?", categoryID).
		Group("entries.id").
		Order("votes DESC, entries.costume_name ASC").
		Scan(&rows).Error
	return rows, err
}

// TallyLeader 返回排序后的领先者和领先优势。
// 没有条目时leader为nil；条目少于两个时margin为nil。
func TallyLeader(rows []TallyRow) (leader *Leader, margin *int64) {
	if len(rows) == 0 {
		return nil, nil
	}
	leader = &Leader{
		CostumeName: rows[0].CostumeName,
		By:          rows[0].FirstName + " " + rows[0].LastName,
		Votes:       rows[0].Votes,
	}
	if len(rows) >= 2 {
		m := rows[0].Votes - rows[1].Votes
		margin = &m
	}
	return leader, margin
}

// AuditRows 返回完整的审计记录：每张选票在每个类别下的选择，
// 按投票时间降序、类别名升序、服装名升序排列。
func (s *VoteService) AuditRows(ctx context.Context) ([]AuditRow, error) {
	var rows []AuditRow
	err := s.db.WithContext(ctx).
		Table("votes").
		Select("votes.id AS vote_id, votes.voter_first, votes.voter_last, votes.created_at AS voted_at, categories.name AS category, entries.costume_name, entries.first_name AS entry_first, entries.last_name AS entry_last").
		Joins("JOIN vote_items ON vote_items.vote_id = votes.id").
		Joins("JOIN categories ON categories.id = vote_items.category_id").
		Joins("JOIN entries ON entries.id = vote_items.entry_id").
		Order("votes.created_at DESC, categories.name ASC, entries.costume_name ASC").
		Scan(&rows).Error
	return rows, err
}

// Participation 返回某类别收到的vote_item数量。
// 这是选择数而不是投票人数：跳过该类别的投票人不计入。
func (s *VoteService) Participation(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.VoteItem{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}
