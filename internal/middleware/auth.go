package middleware

import (
	"context"
	"net/http"
	"strings"

	"Social_Feed/internal/pkg"
	"Social_Feed/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// SessionStore 单点登录校验；为 nil 时只校验 jwt
type SessionStore interface {
	Token(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64) error
}

type Auth struct {
	codec    *pkg.TokenCodec
	sessions SessionStore
}

func NewAuth(codec *pkg.TokenCodec, sessions SessionStore) *Auth {
	return &Auth{codec: codec, sessions: sessions}
}

// Optional 有合法 token 时注入 user_id 与 role，没有 token 时按匿名访问处理
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// Required 写接口必须登录
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

func (a *Auth) authenticate(c *gin.Context) bool {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
		return false
	}
	tokenStr := parts[1]

	claims, err := a.codec.ParseAccess(tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return false
	}

	if a.sessions != nil {
		ctx := c.Request.Context()
		// redis校验是否是正确的token
		origin, err := a.sessions.Token(ctx, claims.UserID)
		if err != nil || origin != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account has been logged in elsewhere"})
			return false
		}
		// 校验通过后更新过期时间
		if err := a.sessions.Extend(ctx, claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return false
		}
	}

	// 注入 user_id
	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextRoleKey, claims.Role)
	return true
}

// ViewerFrom 读取中间件注入的身份，未登录返回匿名 Viewer
func ViewerFrom(c *gin.Context) service.Viewer {
	return service.Viewer{ID: c.GetUint64(ContextUserIDKey), Role: c.GetInt(ContextRoleKey)}
}
