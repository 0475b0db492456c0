package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"costume-voting-backend/database"
	"costume-voting-backend/service"
	"costume-voting-backend/wizard"

	"github.com/gin-gonic/gin"
)

// VotingStatus 返回投票开放状态和启用的类别数
func VotingStatus(c *gin.Context) {
	enabled := database.VotingEnabled(database.DB)
	cats, err := svc().EnabledCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"voting_enabled": enabled,
		"categories":     len(cats),
	})
}

// GetVoteStep 返回向导某一步的数据：当前类别、全部条目和草稿状态。
// 每一步都重新检查投票开关和启用的类别。
func GetVoteStep(c *gin.Context) {
	if !database.VotingEnabled(database.DB) {
		c.JSON(http.StatusForbidden, gin.H{"error": "voting is closed"})
		return
	}

	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.Redirect(http.StatusFound, "/api/vote/step/0")
		return
	}

	cats, err := svc().EnabledCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}
	if len(cats) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no categories are enabled", "categories": 0})
		return
	}

	// 过期链接里的越界步骤退回第一步
	if !wizard.ValidStep(idx, len(cats)) {
		c.Redirect(http.StatusFound, "/api/vote/step/0")
		return
	}

	entries, err := svc().AllEntries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve entries"})
		return
	}

	draft := loadDraft(c)
	c.JSON(http.StatusOK, gin.H{
		"idx":         idx,
		"total":       len(cats),
		"category":    cats[idx],
		"entries":     entries,
		"voter_first": draft.VoterFirst,
		"voter_last":  draft.VoterLast,
		"selection":   draft.Ballot[cats[idx].ID],
	})
}

// PostVoteStep 处理向导一步的提交：第0步采集投票人姓名，
// 每一步记录可选的条目选择，然后按导航指令计算下一步。
func PostVoteStep(c *gin.Context) {
	if !database.VotingEnabled(database.DB) {
		c.JSON(http.StatusForbidden, gin.H{"error": "voting is closed"})
		return
	}

	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step index"})
		return
	}

	cats, err := svc().EnabledCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve categories"})
		return
	}
	if len(cats) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no categories are enabled"})
		return
	}
	if !wizard.ValidStep(idx, len(cats)) {
		c.Redirect(http.StatusSeeOther, "/api/vote/step/0")
		return
	}

	draft := loadDraft(c)

	// 第0步要求投票人姓名
	if idx == 0 {
		if err := draft.SetVoter(c.PostForm("voter_first"), c.PostForm("voter_last")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please enter your first and last name"})
			return
		}
	}

	// 选择是可选的；解析失败按"尚未选择"处理
	draft.Select(cats[idx].ID, c.PostForm("choice_entry_id"))

	if err := saveDraft(c, draft); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	next, finish := wizard.Next(wizard.Nav(c.PostForm("nav")), idx, len(cats))
	if finish {
		c.JSON(http.StatusOK, gin.H{"finish": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"finish":   false,
		"next_idx": next,
		"next_url": fmt.Sprintf("/api/vote/step/%d", next),
	})
}

// FinishVote 最终提交选票。重复投票人拿到409并丢弃草稿；
// 成功时清空草稿并向实时结果板广播受影响类别的最新计票。
func FinishVote(c *gin.Context) {
	if !database.VotingEnabled(database.DB) {
		c.JSON(http.StatusForbidden, gin.H{"error": "voting is closed"})
		return
	}

	draft := loadDraft(c)
	vote, err := svc().FinalizeBallot(c.Request.Context(), draft)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingVoter):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing voter name; please start again"})
		case errors.Is(err, service.ErrDuplicateVoter):
			clearDraft(c)
			c.JSON(http.StatusConflict, gin.H{"error": "our records show you've already submitted a ballot"})
		case errors.Is(err, service.ErrVotingClosed):
			c.JSON(http.StatusForbidden, gin.H{"error": "voting is closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record ballot"})
		}
		return
	}

	broadcastTallies(c, draft)
	clearDraft(c)

	log.Printf("选票已记录: ID=%d, 投票人=%s %s", vote.ID, vote.VoterFirst, vote.VoterLast)
	c.JSON(http.StatusOK, gin.H{
		"message": "thanks! your ballot has been recorded",
		"vote_id": vote.ID,
	})
}

// broadcastTallies 把草稿涉及类别的最新计票推给实时结果板
func broadcastTallies(c *gin.Context, draft *wizard.Draft) {
	if liveHub == nil {
		return
	}
	for categoryID := range draft.Ballot {
		rows, err := svc().CategoryTally(c.Request.Context(), categoryID)
		if err != nil {
			continue
		}
		liveHub.BroadcastToCategory(categoryID, rows)
	}
}
