package handlers

import (
	"log"
	"time"

	"costume-voting-backend/database"
	"costume-voting-backend/service"
	"costume-voting-backend/storage"
	"costume-voting-backend/websocket"
)

// 全局依赖，main初始化后注入
var (
	photoStore *storage.PhotoStore
	liveHub    *websocket.Hub
	startTime  = time.Now()
)

// InitHandlers 注入照片存储和实时推送Hub
func InitHandlers(store *storage.PhotoStore, hub *websocket.Hub) {
	photoStore = store
	liveHub = hub
	log.Println("处理程序依赖注入完成")
}

// svc 基于当前全局数据库连接构造选票服务。
// 每次请求新建，测试中替换database.DB后立即生效。
func svc() *service.VoteService {
	return service.NewVoteService(database.DB)
}
