package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/pkg/response"
)

// ListProfiles 资料列表（浏览候选，只读）
// @Summary 资料列表
// @Tags 资料
// @Param exclude query string false "排除的用户ID"
// @Success 200 {object} response.Response{data=[]model.UserSummary}
// @Router /api/profiles [get]
func (h *Handler) ListProfiles(c *gin.Context) {
	users, err := h.userRepo.List(c.Request.Context(), c.Query("exclude"), 100)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	res := make([]model.UserSummary, len(users))
	for i, u := range users {
		res[i] = u.Summary()
	}
	response.Success(c, res)
}
