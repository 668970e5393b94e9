package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/match-chat/internal/event"
	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64

	// 入站事件限速：稳态 10/s，突发 20
	eventRate  = 10
	eventBurst = 20

	opTimeout = 5 * time.Second
)

// Client 一条已认证的实时连接。
// rooms / closed 只在持有 Hub 锁时变更。
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	chatSvc service.ChatService
	send    chan []byte
	rooms   map[string]struct{}
	closed  bool
	limiter *rate.Limiter
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, chatSvc service.ChatService) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		userID:  userID,
		chatSvc: chatSvc,
		send:    make(chan []byte, sendBuffer),
		rooms:   make(map[string]struct{}),
		limiter: rate.NewLimiter(rate.Limit(eventRate), eventBurst),
	}
}

// Serve 登记连接并驱动读写循环；返回时连接已注销、房间已清理
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.String("user", c.userID), zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			c.sendError("rate_limited", "too many events")
			continue
		}
		c.dispatch(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(raw []byte) {
	var env event.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("invalid", "malformed event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch env.Type {
	case event.TypeJoinChat:
		var chatID string
		if err := json.Unmarshal(env.Data, &chatID); err != nil || chatID == "" {
			c.sendError("invalid", "joinChat expects a chat id")
			return
		}
		if err := c.chatSvc.Authorize(ctx, c.userID, chatID); err != nil {
			c.sendServiceError(err)
			return
		}
		c.hub.Join(c, chatID)
	case event.TypeLeaveChat:
		var chatID string
		if err := json.Unmarshal(env.Data, &chatID); err != nil || chatID == "" {
			c.sendError("invalid", "leaveChat expects a chat id")
			return
		}
		c.hub.Leave(c, chatID)
	case event.TypeSendMessage:
		var p event.SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			c.sendError("invalid", "sendMessage expects {chatId, text}")
			return
		}
		if _, err := c.chatSvc.PostMessage(ctx, p.ChatID, c.userID, p.Text); err != nil {
			c.sendServiceError(err)
			return
		}
	default:
		c.sendError("invalid", "unknown event type")
	}
}

func (c *Client) sendServiceError(err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.sendError("forbidden", err.Error())
	case errors.Is(err, service.ErrChatNotFound):
		c.sendError("not_found", err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		c.sendError("invalid", err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		c.sendError("unavailable", "store unavailable, retry")
	default:
		logger.Error("realtime event failed", zap.String("user", c.userID), zap.Error(err))
		c.sendError("internal", "temporary failure, retry")
	}
}

func (c *Client) sendError(code, msg string) {
	payload, err := event.Marshal(event.TypeError, event.ErrorEvent{Code: code, Message: msg})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// trySend 非阻塞投递；发送缓冲满时丢弃（慢连接不拖慢房间）
func (c *Client) trySend(payload []byte) {
	select {
	case c.send <- payload:
	default:
		logger.Warn("send buffer full, drop payload", zap.String("user", c.userID))
	}
}
