package websocket

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时
	pongWait = 60 * time.Second

	// 发送ping间隔时间，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 允许所有跨域请求，生产环境应限制
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InitialTallyFunc 新连接建立时获取初始计票数据
type InitialTallyFunc func(categoryID uint) (interface{}, error)

// Handler 结果板WebSocket处理器
type Handler struct {
	hub     *Hub
	initial InitialTallyFunc
}

// NewHandler 创建WebSocket处理器
func NewHandler(hub *Hub, initial InitialTallyFunc) *Handler {
	return &Handler{hub: hub, initial: initial}
}

// HandleConnection 处理结果板的WebSocket连接请求
func (h *Handler) HandleConnection(c *gin.Context) {
	categoryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("升级WebSocket连接失败: %v", err)
		return
	}

	client := &Client{
		CategoryID: uint(categoryID),
		conn:       conn,
		send:       make(chan []byte, 256),
	}

	h.hub.RegisterClient(client)

	go h.writePump(client)
	go h.readPump(client)

	// 连接建立后先推一次当前计票
	if h.initial != nil {
		if results, err := h.initial(client.CategoryID); err == nil {
			h.hub.BroadcastToCategory(client.CategoryID, results)
		}
	}
}

// readPump 从WebSocket连接读取消息；客户端只收不发
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.UnregisterClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取WebSocket消息出错: %v", err)
			}
			break
		}
	}
}

// writePump 向WebSocket连接发送消息
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := client.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
