package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/model"
)

const (
	ctxSession = "session"
	ctxUserID  = "user_id"
)

// BearerToken 从 Authorization 头取出令牌
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// RequireAuth 要求有效认证的中间件
// 必须提供有效的 JWT token，否则返回 401
func RequireAuth(provider *identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "Missing Authorization header",
			})
			return
		}

		sess, err := provider.SessionFor(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "Invalid or expired token",
			})
			return
		}

		c.Set(ctxSession, sess)
		c.Set(ctxUserID, sess.UserID())
		c.Next()
	}
}

// GetSession 从上下文获取当前会话
func GetSession(c *gin.Context) (*identity.Session, bool) {
	v, exists := c.Get(ctxSession)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*identity.Session)
	return sess, ok
}

// GetCurrentUser 从上下文获取当前用户
func GetCurrentUser(c *gin.Context) (*model.User, bool) {
	sess, ok := GetSession(c)
	if !ok {
		return nil, false
	}
	u := sess.User()
	return u, u != nil
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	return c.GetString(ctxUserID), c.GetString(ctxUserID) != ""
}
