package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"costume-voting-backend/database"
	"costume-voting-backend/handlers"
	"costume-voting-backend/routes"
	"costume-voting-backend/storage"
	"costume-voting-backend/websocket"
)

func main() {
	// 初始化数据库连接
	if err := database.InitDB(); err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("数据库连接初始化成功")

	// 初始化照片存储
	photoStore, err := storage.NewPhotoStore(database.GetEnv("UPLOAD_DIR", "uploads"))
	if err != nil {
		log.Fatalf("无法初始化照片存储: %v", err)
	}
	log.Println("照片存储初始化成功")

	// 初始化结果板WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// 注入处理程序依赖
	handlers.InitHandlers(photoStore, hub)

	// 设置路由
	router := routes.SetupRouter(photoStore, hub)
	log.Println("路由设置完成")

	// 启动服务器
	srv := routes.StartServer(router)
	log.Println("服务器启动成功")

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("关闭服务器...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 不接受新请求并等待现有请求完成
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}

	// 关闭数据库连接
	database.CloseDB()

	log.Println("服务器优雅关闭")
}
