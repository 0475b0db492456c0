package service

import (
	"context"
	"sort"
	"time"

	"costume-voting-backend/models"
)

// HourCount 某小时内创建的记录数
type HourCount struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

// EntityCounts 基础计数统计
type EntityCounts struct {
	Entries            int64 `json:"entries"`
	Votes              int64 `json:"votes"`
	CategoriesEnabled  int64 `json:"categories_enabled"`
	CategoriesDisabled int64 `json:"categories_disabled"`
}

// AllCategories 返回全部类别（含禁用），按名称排序
func (s *VoteService) AllCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

// Counts 统计条目、选票和类别数量
func (s *VoteService) Counts(ctx context.Context) (EntityCounts, error) {
	var c EntityCounts
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Entry{}).Count(&c.Entries).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Vote{}).Count(&c.Votes).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Category{}).Where("enabled = ?", true).Count(&c.CategoriesEnabled).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.Category{}).Where("enabled = ?", false).Count(&c.CategoriesDisabled).Error; err != nil {
		return c, err
	}
	return c, nil
}

// LastVoteAt 最近一次投票时间，没有投票时返回nil
func (s *VoteService) LastVoteAt(ctx context.Context) (*time.Time, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(1).Find(&vote).Error
	if err != nil {
		return nil, err
	}
	if vote.ID == 0 {
		return nil, nil
	}
	t := vote.CreatedAt.UTC()
	return &t, nil
}

// EntriesHourly 条目创建时间按小时分桶
func (s *VoteService) EntriesHourly(ctx context.Context) ([]HourCount, error) {
	var times []time.Time
	err := s.db.WithContext(ctx).Model(&models.Entry{}).Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return bucketHourly(times), nil
}

// VotesHourly 选票创建时间按小时分桶
func (s *VoteService) VotesHourly(ctx context.Context) ([]HourCount, error) {
	var times []time.Time
	err := s.db.WithContext(ctx).Model(&models.Vote{}).Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return bucketHourly(times), nil
}

// bucketHourly 将时间戳截断到小时并计数，按小时升序返回。
// 在Go侧分桶，避免依赖SQLite的日期格式细节。
func bucketHourly(times []time.Time) []HourCount {
	buckets := make(map[string]int64)
	for _, t := range times {
		hour := t.UTC().Truncate(time.Hour).Format(time.RFC3339)
		buckets[hour]++
	}

	result := make([]HourCount, 0, len(buckets))
	for hour, count := range buckets {
		result = append(result, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Hour < result[j].Hour })
	return result
}
