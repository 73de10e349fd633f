package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/pkg/security"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

const (
	// ClaimsKey Context 中存储 Claims 的 key
	ClaimsKey = "jwt_claims"
)

// Auth JWT 认证中间件，跳过路径由 JWTConfig.SkipPaths 决定
func Auth(m *security.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.ShouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractToken(c, m.GetConfig())
		if token == "" {
			abortUnauthorized(c, security.ErrTokenMissing)
			return
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(security.SetClaimsToContext(c.Request.Context(), claims))
		c.Next()
	}
}

// extractToken 从请求中提取 Token
func extractToken(c *gin.Context, cfg *security.JWTConfig) string {
	header := c.GetHeader(cfg.HeaderName)
	if header == "" {
		return ""
	}
	if cfg.TokenPrefix != "" && strings.HasPrefix(header, cfg.TokenPrefix) {
		return strings.TrimPrefix(header, cfg.TokenPrefix)
	}
	return header
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    weberrors.CodeUnAuthorized,
		"message": err.Error(),
		"data":    nil,
	})
}

// GetClaims 从 Context 获取 Claims
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	if v, exists := c.Get(ClaimsKey); exists {
		claims, ok := v.(*security.Claims)
		return claims, ok
	}
	return nil, false
}

// GetSubject 调用方标识，未认证返回空串
func GetSubject(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.Subject
	}
	return ""
}
