package service

import (
	"context"
	"errors"
	"log"

	"costume-voting-backend/database"
	"costume-voting-backend/models"
	"costume-voting-backend/wizard"

	"gorm.io/gorm"
)

var (
	// 业务错误定义
	ErrVotingClosed   = errors.New("voting is closed")
	ErrMissingVoter   = errors.New("missing voter name")
	ErrDuplicateVoter = errors.New("voter has already submitted a ballot")
	ErrNotFound       = errors.New("record not found")
)

// VoteService 选票提交与查询服务
type VoteService struct {
	db *gorm.DB
}

// NewVoteService 创建选票服务
func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// EnabledCategories 返回当前启用的类别，按名称排序。
// 每次调用都重新读取，向导步骤的总数N以此为准。
func (s *VoteService) EnabledCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("name ASC").
		Find(&cats).Error
	return cats, err
}

// AllEntries 返回全部参赛条目，最新的在前
func (s *VoteService) AllEntries(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// FinalizeBallot 原子提交一张选票。
//
// 重复投票由votes.voter_key上的唯一索引在存储层保证：并发的两次提交
// 只有一个能通过，另一个拿到ErrDuplicateVoter。单个vote_item插入失败
// （例如条目已被删除）按既定策略忽略，选票本身照常提交。
func (s *VoteService) FinalizeBallot(ctx context.Context, draft *wizard.Draft) (*models.Vote, error) {
	if !database.VotingEnabled(s.db) {
		return nil, ErrVotingClosed
	}
	if draft == nil || !draft.HasVoter() {
		return nil, ErrMissingVoter
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	// 先查一次给出友好结果；真正的防线是唯一索引
	voterKey := models.NormalizeVoterKey(draft.VoterFirst, draft.VoterLast)
	var existing models.Vote
	err := tx.Where("voter_key = ?", voterKey).First(&existing).Error
	if err == nil {
		tx.Rollback()
		return nil, ErrDuplicateVoter
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	vote := models.Vote{
		VoterFirst: draft.VoterFirst,
		VoterLast:  draft.VoterLast,
		VoterKey:   voterKey,
	}
	if err := tx.Create(&vote).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateVoter
		}
		return nil, err
	}

	// 只为当前启用的类别写入vote_item；中途被禁用的类别即使在草稿里
	// 也不会产生记录
	var cats []models.Category
	if err := tx.Where("enabled = ?", true).Order("name ASC").Find(&cats).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, cat := range cats {
		entryID, ok := draft.Ballot[cat.ID]
		if !ok || entryID == 0 {
			continue
		}
		item := models.VoteItem{
			VoteID:     vote.ID,
			CategoryID: cat.ID,
			EntryID:    entryID,
		}
		if err := tx.Create(&item).Error; err != nil {
			// 单项失败（比如引用了已删除的条目）不影响整张选票
			log.Printf("跳过类别 %d 的选项写入: %v", cat.ID, err)
			continue
		}
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return &vote, nil
}
