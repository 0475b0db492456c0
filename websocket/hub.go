package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client 代表一个订阅了某类别实时计票的WebSocket连接
type Client struct {
	// 订阅的类别ID
	CategoryID uint

	conn *websocket.Conn
	send chan []byte
}

// TallyUpdate 推送给结果板的消息
type TallyUpdate struct {
	Type       string      `json:"type"`
	CategoryID uint        `json:"category_id"`
	Results    interface{} `json:"results"`
}

// Hub 维护活跃的客户端集合并按类别广播计票更新
type Hub struct {
	// 已注册的客户端，按类别ID分组
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// 互斥锁保护clients map
	mu sync.RWMutex
}

// NewHub 创建一个新的Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 启动Hub消息处理循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.CategoryID]; !ok {
				h.clients[client.CategoryID] = make(map[*Client]bool)
			}
			h.clients[client.CategoryID][client] = true
			h.mu.Unlock()
			log.Printf("结果板客户端已注册, 类别=%d", client.CategoryID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.CategoryID]; ok {
				if _, ok := h.clients[client.CategoryID][client]; ok {
					delete(h.clients[client.CategoryID], client)
					close(client.send)
					if len(h.clients[client.CategoryID]) == 0 {
						delete(h.clients, client.CategoryID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("结果板客户端已注销, 类别=%d", client.CategoryID)
		}
	}
}

// BroadcastToCategory 向订阅了某类别的所有客户端广播最新计票
func (h *Hub) BroadcastToCategory(categoryID uint, results interface{}) {
	payload, err := json.Marshal(TallyUpdate{
		Type:       "TALLY_UPDATE",
		CategoryID: categoryID,
		Results:    results,
	})
	if err != nil {
		log.Printf("序列化计票更新失败: %v", err)
		return
	}

	h.mu.RLock()
	clients := h.clients[categoryID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.send <- payload:
		default:
			// 发送缓冲区已满，丢弃该连接
			h.mu.Lock()
			delete(h.clients[categoryID], client)
			close(client.send)
			if len(h.clients[categoryID]) == 0 {
				delete(h.clients, categoryID)
			}
			h.mu.Unlock()
		}
	}
}

// RegisterClient 注册客户端到Hub
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient 从Hub中注销客户端
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
