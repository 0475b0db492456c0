package routes

import (
	"context"
	"log"
	"net/http"
	"time"

	"costume-voting-backend/database"
	"costume-voting-backend/handlers"
	"costume-voting-backend/service"
	"costume-voting-backend/storage"
	ws "costume-voting-backend/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Server 是HTTP服务器的封装
type Server struct {
	*http.Server
}

// SetupRouter 设置和配置Gin路由
func SetupRouter(photoStore *storage.PhotoStore, hub *ws.Hub) *gin.Engine {
	// 创建Gin路由器
	router := gin.Default()

	// 配置CORS中间件
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // 生产环境中应限制为前端域名
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 配置cookie会话中间件
	store := cookie.NewStore([]byte(database.GetEnv("SESSION_SECRET", "change-me")))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   12 * 3600,
		HttpOnly: true,
	})
	router.Use(sessions.Sessions("costume_voting", store))

	// 初始化限流器
	handlers.InitRateLimiter()

	// 上传照片的静态访问
	router.Static("/uploads", photoStore.Dir())

	// 结果板WebSocket端点
	wsHandler := ws.NewHandler(hub, func(categoryID uint) (interface{}, error) {
		return service.NewVoteService(database.DB).CategoryTally(context.Background(), categoryID)
	})
	router.GET("/ws/results/:id", wsHandler.HandleConnection)

	// 定义API路由
	api := router.Group("/api")
	{
		// 全局API限流中间件
		api.Use(handlers.RateLimitMiddleware())

		// 健康检查端点
		api.GET("/health", handlers.HealthCheck)
		api.GET("/status", handlers.SystemStatus)

		// 公共统计端点
		api.GET("/stats", handlers.PublicStats)

		// 参赛条目端点
		api.POST("/entries", handlers.SubmitEntry)
		api.GET("/entries", handlers.ListEntries)

		// 投票向导端点
		vote := api.Group("/vote")
		{
			vote.GET("", handlers.VotingStatus)
			vote.GET("/step/:idx", handlers.GetVoteStep)
			vote.POST("/step/:idx", handlers.PostVoteStep)
			vote.POST("/finish", handlers.FinishVote)
		}

		// 管理员相关API
		admin := api.Group("/admin")
		{
			admin.POST("/login", handlers.AdminLogin)
			admin.POST("/logout", handlers.AdminLogout)

			// 以下操作需要admin会话标志，未登录一律403
			authed := admin.Group("")
			authed.Use(handlers.AdminRequired())
			{
				authed.GET("/dashboard", handlers.AdminDashboard)
				authed.POST("/toggle_voting", handlers.ToggleVoting)
				authed.POST("/categories", handlers.CategoryAdd)
				authed.POST("/categories/:id/toggle", handlers.CategoryToggle)
				authed.POST("/categories/:id/rename", handlers.CategoryRename)
				authed.POST("/categories/:id/delete", handlers.CategoryDelete)
				authed.POST("/entries/:id/delete", handlers.DeleteEntry)
				authed.POST("/purge", handlers.PurgeAll)
				authed.GET("/results", handlers.Results)
				authed.GET("/audit", handlers.Audit)
				authed.GET("/audit.csv", handlers.AuditCSV)
				authed.GET("/ratelimit/stats", handlers.GetRateLimiterStats)
			}
		}
	}

	return router
}

// StartServer 启动HTTP服务器
func StartServer(router *gin.Engine) *Server {
	port := database.GetEnv("SERVER_PORT", "8090")
	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	// 在单独的goroutine中启动服务器
	go func() {
		log.Printf("服务器启动在 %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	return srv
}
