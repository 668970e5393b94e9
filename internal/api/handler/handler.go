package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/internal/ws"
	"github.com/d60-Lab/match-chat/pkg/response"
)

type Handler struct {
	authSvc  service.AuthService
	matchSvc service.MatchService
	chatSvc  service.ChatService
	userRepo repository.UserRepository
	hub      *ws.Hub
}

func New(authSvc service.AuthService, matchSvc service.MatchService, chatSvc service.ChatService, userRepo repository.UserRepository, hub *ws.Hub) *Handler {
	return &Handler{authSvc: authSvc, matchSvc: matchSvc, chatSvc: chatSvc, userRepo: userRepo, hub: hub}
}

// fail 业务错误到 HTTP 的统一映射
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfLike), errors.Is(err, service.ErrEmptyMessage):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrChatNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		response.ServiceUnavailable(c, "store unavailable, retry")
	default:
		response.InternalError(c, err)
	}
}
