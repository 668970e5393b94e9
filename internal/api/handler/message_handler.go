package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/match-chat/internal/api/middleware"
	"github.com/d60-Lab/match-chat/pkg/response"
)

type postMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListMessages 房间历史消息（升序）
// @Summary 历史消息
// @Tags 消息
// @Param chatId path string true "会话ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/messages/{chatId} [get]
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.chatSvc.ListMessages(c.Request.Context(), c.Param("chatId"), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, msgs)
}

// PostMessage 发消息（无实时连接时的 HTTP 兜底，同样扇出）
// @Summary 发送消息
// @Tags 消息
// @Accept json
// @Produce json
// @Param chatId path string true "会话ID"
// @Param request body postMessageRequest true "消息内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Security BearerAuth
// @Router /api/messages/{chatId} [post]
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.chatSvc.PostMessage(c.Request.Context(), c.Param("chatId"), middleware.UserID(c), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, msg)
}
