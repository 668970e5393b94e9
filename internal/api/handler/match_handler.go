package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/match-chat/internal/api/middleware"
	"github.com/d60-Lab/match-chat/pkg/response"
)

type likeRequest struct {
	To string `json:"to" binding:"required"`
}

// Like 记录喜欢，互喜欢时建 Match
// @Summary 喜欢某用户
// @Tags 匹配
// @Accept json
// @Produce json
// @Param request body likeRequest true "目标用户"
// @Success 200 {object} response.Response{data=service.LikeResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/like [post]
func (h *Handler) Like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.matchSvc.RecordLike(c.Request.Context(), middleware.UserID(c), req.To)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// ListMatches 当前用户的全部 Match
// @Summary 匹配列表
// @Tags 匹配
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/matches [get]
func (h *Handler) ListMatches(c *gin.Context) {
	matches, err := h.matchSvc.ListMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, matches)
}

// ListChats 当前用户的会话（matchId / chatId / 对端）
// @Summary 会话列表
// @Tags 匹配
// @Success 200 {object} response.Response{data=[]service.ChatInfo}
// @Security BearerAuth
// @Router /api/chats [get]
func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.matchSvc.ListChats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, chats)
}
