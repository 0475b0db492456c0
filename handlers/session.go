package handlers

import (
	"encoding/gob"
	"log"
	"net/http"

	"costume-voting-backend/wizard"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 会话键名
const (
	sessionKeyVoterFirst = "voter_first"
	sessionKeyVoterLast  = "voter_last"
	sessionKeyBallot     = "ballot"
	sessionKeyAdmin      = "admin"
)

func init() {
	// cookie会话使用gob编码，草稿选票的map类型需要注册
	gob.Register(map[uint]uint{})
}

// loadDraft 从会话恢复草稿选票
func loadDraft(c *gin.Context) *wizard.Draft {
	s := sessions.Default(c)
	draft := wizard.NewDraft()

	if v, ok := s.Get(sessionKeyVoterFirst).(string); ok {
		draft.VoterFirst = v
	}
	if v, ok := s.Get(sessionKeyVoterLast).(string); ok {
		draft.VoterLast = v
	}
	if v, ok := s.Get(sessionKeyBallot).(map[uint]uint); ok {
		draft.Ballot = v
	}
	return draft
}

// saveDraft 把草稿写回会话
func saveDraft(c *gin.Context, draft *wizard.Draft) error {
	s := sessions.Default(c)
	s.Set(sessionKeyVoterFirst, draft.VoterFirst)
	s.Set(sessionKeyVoterLast, draft.VoterLast)
	s.Set(sessionKeyBallot, draft.Ballot)
	return s.Save()
}

// clearDraft 只清除三个投票相关的会话键，admin标志保留
func clearDraft(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(sessionKeyVoterFirst)
	s.Delete(sessionKeyVoterLast)
	s.Delete(sessionKeyBallot)
	if err := s.Save(); err != nil {
		log.Printf("保存会话失败: %v", err)
	}
}

// isAdmin 判断当前会话是否持有admin标志
func isAdmin(c *gin.Context) bool {
	s := sessions.Default(c)
	admin, ok := s.Get(sessionKeyAdmin).(bool)
	return ok && admin
}

// AdminRequired 管理操作的鉴权中间件，未登录时直接拒绝
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
