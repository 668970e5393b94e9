package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/match-chat/pkg/logger"
)

// Hub 聊天室注册表：chatID -> 在线连接集合，userID -> 连接集合。
// 成员关系只通过这里的方法变更，不暴露全局可变状态。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // userID -> conns
	rooms   map[string]map[*Client]struct{} // chatID -> conns
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register 登记已认证连接（同一用户可有多条连接）
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	logger.Debug("client registered", zap.String("user", c.userID))
}

// Unregister 注销连接并把它从加入过的每个房间移除（不留悬挂监听者）
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for chatID := range c.rooms {
		if members, ok := h.rooms[chatID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, chatID)
			}
		}
	}
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	close(c.send)
	logger.Debug("client unregistered", zap.String("user", c.userID))
}

// Join 幂等加入房间
func (h *Hub) Join(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[chatID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[chatID] = members
	}
	members[c] = struct{}{}
	c.rooms[chatID] = struct{}{}
}

// Leave 离开房间；未加入时为安全 no-op
func (h *Hub) Leave(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[chatID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
	delete(c.rooms, chatID)
}

// BroadcastRoom 把负载投给房间内全部在线连接。
// 调用方（ChatService）在房间临界区内按持久化顺序调用，
// 送入各连接发送缓冲的顺序即写出顺序；缓冲满的慢连接丢弃该条。
func (h *Hub) BroadcastRoom(chatID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		c.trySend(payload)
	}
}

// SendToUser 把负载投给某用户的全部连接；无连接时返回 false
func (h *Hub) SendToUser(userID string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set, ok := h.clients[userID]
	if !ok || len(set) == 0 {
		return false
	}
	for c := range set {
		c.trySend(payload)
	}
	return true
}

// UserOnline 该用户是否有在线连接
func (h *Hub) UserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// RoomSize 房间当前在线连接数
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
