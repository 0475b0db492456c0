package handlers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"costume-voting-backend/database"
	"costume-voting-backend/service"

	"github.com/gin-gonic/gin"
)

// PublicStats 公共JSON统计端点
func PublicStats(c *gin.Context) {
	ctx := c.Request.Context()
	s := svc()

	counts, err := s.Counts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	lastVoteAt, err := s.LastVoteAt(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	cats, err := s.AllCategories(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}

	type perCategory struct {
		ID            uint            `json:"id"`
		Name          string          `json:"name"`
		Participation int64           `json:"participation"`
		Leader        *service.Leader `json:"leader"`
		LeadMargin    *int64          `json:"lead_margin"`
	}

	perCat := make([]perCategory, 0, len(cats))
	for _, cat := range cats {
		participation, err := s.Participation(ctx, cat.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
			return
		}
		rows, err := s.CategoryTally(ctx, cat.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
			return
		}
		leader, margin := service.TallyLeader(rows)
		perCat = append(perCat, perCategory{
			ID:            cat.ID,
			Name:          cat.Name,
			Participation: participation,
			Leader:        leader,
			LeadMargin:    margin,
		})
	}

	entriesHourly, err := s.EntriesHourly(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	votesHourly, err := s.VotesHourly(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	// 进度百分比：投票数/预期人数，封顶100；未配置时为null
	expected, _ := strconv.Atoi(database.GetEnv("EXPECTED_ATTENDEES", "0"))
	var progressPct *float64
	if expected > 0 {
		pct := float64(counts.Votes) / float64(expected) * 100
		if pct > 100 {
			pct = 100
		}
		progressPct = &pct
	}

	photoCount, photoBytes := photoStore.Usage()
	var avgPhotoBytes int64
	if photoCount > 0 {
		avgPhotoBytes = photoBytes / photoCount
	}
	var dbBytes int64
	if info, err := os.Stat(database.GetEnv("DB_PATH", "halloween.db")); err == nil {
		dbBytes = info.Size()
	}

	c.JSON(http.StatusOK, gin.H{
		"now_utc":            time.Now().UTC().Format(time.RFC3339),
		"voting_enabled":     database.VotingEnabled(database.DB),
		"expected_attendees": expected,
		"progress_pct":       progressPct,
		"counts":             counts,
		"last_vote_at":       lastVoteAt,
		"per_category":       perCat,
		"timeline": gin.H{
			"entries_hourly": entriesHourly,
			"votes_hourly":   votesHourly,
		},
		"storage": gin.H{
			"photo_files":     photoCount,
			"photo_bytes":     photoBytes,
			"photo_avg_bytes": avgPhotoBytes,
			"db_bytes":        dbBytes,
		},
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}
