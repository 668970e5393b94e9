package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/match-chat/internal/api/middleware"
	"github.com/d60-Lab/match-chat/internal/ws"
	"github.com/d60-Lab/match-chat/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS 实时连接入口：先验令牌再升级；验签失败直接拒绝，不进注册表
// @Summary WebSocket 接入
// @Tags 实时
// @Param token query string true "Bearer token"
// @Router /ws [get]
func (h *Handler) ServeWS(c *gin.Context) {
	token := middleware.TokenFrom(c)
	userID, err := h.authSvc.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userID, h.chatSvc)
	client.Serve()
}
