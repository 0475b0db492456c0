package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"costume-voting-backend/service"

	"github.com/gin-gonic/gin"
)

// csvHeader 审计导出的固定表头
var csvHeader = []string{
	"vote_id", "voter_first", "voter_last", "voted_at",
	"category", "costume_name", "entry_first", "entry_last",
}

// Results 每个类别的完整计票，含零票条目和领先者信息
func Results(c *gin.Context) {
	cats, err := svc().AllCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}

	type categoryResult struct {
		ID      uint               `json:"id"`
		Name    string             `json:"name"`
		Enabled bool               `json:"enabled"`
		Tally   []service.TallyRow `json:"tally"`
		Leader  *service.Leader    `json:"leader"`
		Margin  *int64             `json:"lead_margin"`
	}

	results := make([]categoryResult, 0, len(cats))
	for _, cat := range cats {
		rows, err := svc().CategoryTally(c.Request.Context(), cat.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute tally"})
			return
		}
		leader, margin := service.TallyLeader(rows)
		results = append(results, categoryResult{
			ID:      cat.ID,
			Name:    cat.Name,
			Enabled: cat.Enabled,
			Tally:   rows,
			Leader:  leader,
			Margin:  margin,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Audit 审计视图：所有选票按投票分组，组内按类别名和服装名排序
func Audit(c *gin.Context) {
	rows, err := svc().AuditRows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve audit trail"})
		return
	}

	type voteGroup struct {
		VoteID     uint               `json:"vote_id"`
		VoterFirst string             `json:"voter_first"`
		VoterLast  string             `json:"voter_last"`
		VotedAt    time.Time          `json:"voted_at"`
		Items      []service.AuditRow `json:"items"`
	}

	// 行已按投票时间降序排好，按vote_id做稳定分组
	var groups []voteGroup
	byVote := make(map[uint]int)
	for _, row := range rows {
		i, ok := byVote[row.VoteID]
		if !ok {
			groups = append(groups, voteGroup{
				VoteID:     row.VoteID,
				VoterFirst: row.VoterFirst,
				VoterLast:  row.VoterLast,
				VotedAt:    row.VotedAt,
			})
			i = len(groups) - 1
			byVote[row.VoteID] = i
		}
		groups[i].Items = append(groups[i].Items, row)
	}

	c.JSON(http.StatusOK, gin.H{"votes": groups, "total_items": len(rows)})
}

// AuditCSV 审计记录的CSV导出，一行对应一个vote_item
func AuditCSV(c *gin.Context) {
	rows, err := svc().AuditRows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve audit trail"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="audit.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvHeader)
	for _, row := range rows {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(row.VoteID), 10),
			row.VoterFirst,
			row.VoterLast,
			row.VotedAt.UTC().Format(time.RFC3339),
			row.Category,
			row.CostumeName,
			row.EntryFirst,
			row.EntryLast,
		})
	}
	w.Flush()
}
