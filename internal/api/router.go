package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/match-chat/internal/api/handler"
	"github.com/d60-Lab/match-chat/internal/api/middleware"
	"github.com/d60-Lab/match-chat/internal/service"
)

// NewRouter 组装全部路由
func NewRouter(h *handler.Handler, authSvc service.AuthService, otelEnabled bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if otelEnabled {
		r.Use(otelgin.Middleware("match-chat"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/profiles", h.ListProfiles)

		authed := api.Group("", middleware.Auth(authSvc))
		{
			authed.POST("/like", h.Like)
			authed.GET("/matches", h.ListMatches)
			authed.GET("/chats", h.ListChats)
			authed.GET("/messages/:chatId", h.ListMessages)
			authed.POST("/messages/:chatId", h.PostMessage)
		}
	}

	// websocket 握手用 ?token=，不走 Auth 中间件
	r.GET("/ws", h.ServeWS)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}
