// Package websocket 看板实时镜像：读数和通知结果推送给浏览器
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"firesafe-engine/internal/models"

	"go.uber.org/zap"
)

const broadcastQueueSize = 256

// Message 推送格式
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub 维护在线客户端并广播消息
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run 处理注册/注销/广播直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered", zap.String("remote_addr", client.remoteAddr()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("WebSocket client unregistered", zap.String("remote_addr", client.remoteAddr()))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 客户端阻塞或已断开
					h.logger.Warn("WebSocket client send buffer full, removing", zap.String("remote_addr", client.remoteAddr()))
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount 在线客户端数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnReading 作为总线订阅者推送读数
func (h *Hub) OnReading(r models.SensorReading) error {
	h.publish("reading", r)
	return nil
}

// OnAlert 作为通知结果接收方
func (h *Hub) OnAlert(entry models.AlertHistoryEntry) {
	h.publish("alert", entry)
}

// publish 不阻塞调用方（事件循环），队列满时丢弃
func (h *Hub) publish(kind string, payload interface{}) {
	data, err := json.Marshal(Message{Type: kind, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal websocket message", zap.String("type", kind), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping message", zap.String("type", kind))
	}
}
