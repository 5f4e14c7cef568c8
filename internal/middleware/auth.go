// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"

	"ai-studio-go/pkg/session"

	"github.com/gin-gonic/gin"
)

// 存入 Gin 上下文的键。
const (
	ContextSessionKey = "session"
	ContextUserKey    = "user"
)

// SessionMiddleware 创建一个 Gin 中间件，解析会话 Cookie。
// Cookie 缺失或非法时视为匿名会话，不中止请求，由需要登录的接口自行判定。
func SessionMiddleware(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(manager.CookieName())
		if err != nil || cookie == "" {
			c.Set(ContextSessionKey, &session.Data{IsLoggedIn: false})
			c.Next()
			return
		}

		data, err := manager.Verify(cookie)
		if err != nil {
			// 签名不合法或已过期，按未登录处理
			c.Set(ContextSessionKey, &session.Data{IsLoggedIn: false})
			c.Next()
			return
		}

		c.Set(ContextSessionKey, data)
		if data.IsLoggedIn && data.User != nil {
			c.Set(ContextUserKey, data.User)
		}
		c.Next()
	}
}

// RequireLogin 创建一个 Gin 中间件，拒绝未登录的请求。
// 必须挂在 SessionMiddleware 之后。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := CurrentSession(c)
		if data == nil || !data.IsLoggedIn || data.User == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// CurrentSession 从 Gin 上下文中取出会话数据，没有则返回 nil。
func CurrentSession(c *gin.Context) *session.Data {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	data, ok := value.(*session.Data)
	if !ok {
		return nil
	}
	return data
}

// CurrentUser 从 Gin 上下文中取出已登录用户，没有则返回 nil。
func CurrentUser(c *gin.Context) *session.UserInfo {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*session.UserInfo)
	if !ok {
		return nil
	}
	return user
}
