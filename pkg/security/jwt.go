// Package security 调用方身份令牌
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// JWTConfig JWT 配置
type JWTConfig struct {
	// 签名密钥
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// 签名算法，支持 HS256, HS384, HS512（默认 HS256）
	Algorithm string `mapstructure:"algorithm" json:"algorithm"`

	// Token 过期时间（默认 24 小时）
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"expires_in"`

	// 签发者
	Issuer string `mapstructure:"issuer" json:"issuer"`

	// Token 前缀（默认 "Bearer "）
	TokenPrefix string `mapstructure:"token_prefix" json:"token_prefix"`

	// Header 名称（默认 "authorization"）
	HeaderName string `mapstructure:"header_name" json:"header_name"`

	// 跳过验证的路径
	SkipPaths []string `mapstructure:"skip_paths" json:"skip_paths"`
}

// Claims 通用 JWT Claims
type Claims struct {
	jwt.RegisteredClaims

	// Payload 自定义载荷，完全由调用方决定内容
	Payload map[string]any `json:"payload,omitempty"`
}

// DefaultJWTConfig 返回默认 JWT 配置（最小可用配置）
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm:   "HS256",
		ExpiresIn:   24 * time.Hour,
		TokenPrefix: "Bearer ",
		HeaderName:  "authorization",
	}
}

// JWTManager JWT 管理器
type JWTManager struct {
	config *JWTConfig
	method jwt.SigningMethod
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	newCfg, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if newCfg.SecretKey == "" {
		return nil, ErrSecretKeyEmpty
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(newCfg.Algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmInvalid, newCfg.Algorithm)
	}

	return &JWTManager{config: newCfg, method: method}, nil
}

// GenerateToken 生成 Token
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	now := time.Now()

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.ExpiresIn))
	}
	if m.config.Issuer != "" && claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}

	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken 验证 Token
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = m.stripPrefix(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, ErrAlgorithmMismatch
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		return nil, m.wrapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// stripPrefix 移除 Token 前缀
func (m *JWTManager) stripPrefix(tokenString string) string {
	if m.config.TokenPrefix != "" && strings.HasPrefix(tokenString, m.config.TokenPrefix) {
		return strings.TrimPrefix(tokenString, m.config.TokenPrefix)
	}
	return tokenString
}

// wrapError 包装错误
func (m *JWTManager) wrapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// ShouldSkip 检查路径是否需要跳过验证
func (m *JWTManager) ShouldSkip(path string) bool {
	for _, skipPath := range m.config.SkipPaths {
		if matchPath(skipPath, path) {
			return true
		}
	}
	return false
}

// GetConfig 获取配置
func (m *JWTManager) GetConfig() *JWTConfig {
	return m.config
}

// matchPath 路径匹配（支持后缀通配符 *）
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// Context key 类型
type contextKey string

const (
	// ClaimsContextKey 用于在 context 中存储 Claims
	ClaimsContextKey contextKey = "jwt_claims"
)

// SetClaimsToContext 将 Claims 存入 context
func SetClaimsToContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// GetClaimsFromContext 从 context 获取 Claims
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// UnmarshalKey 将指定 key 的值解析到结构体或基本类型
func (c *Claims) UnmarshalKey(key string, v any) error {
	if c.Payload == nil {
		return nil
	}
	val, ok := c.Payload[key]
	if !ok {
		return nil
	}
	return mapstructure.Decode(val, v)
}
