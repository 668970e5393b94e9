package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/pkg/response"
)

const ContextUserID = "userID"

// Auth 校验 Bearer token，把 userID 注入上下文
func Auth(authSvc service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFrom(c)
		if token == "" {
			response.Unauthorized(c, "missing token")
			c.Abort()
			return
		}
		userID, err := authSvc.VerifyToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// TokenFrom 从 Authorization 头或 ?token= 取令牌（websocket 握手走 query）
func TokenFrom(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}

// UserID 取出已认证用户 id
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
