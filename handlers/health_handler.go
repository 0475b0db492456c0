package handlers

import (
	"net/http"
	"time"

	"costume-voting-backend/database"

	"github.com/gin-gonic/gin"
)

// HealthCheck 提供基本健康检查端点
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// SystemStatus 返回系统状态和数据库连通性
func SystemStatus(c *gin.Context) {
	dbStatus := "ok"
	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(startTime).String(),
		"start_time":     startTime.UTC().Format(time.RFC3339),
		"db_status":      dbStatus,
		"voting_enabled": database.VotingEnabled(database.DB),
	})
}
