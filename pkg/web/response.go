package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 提示信息
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data"` // 数据载体
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    weberrors.CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// Fail 按业务错误码返回，HTTP 状态由错误码决定
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(weberrors.CodeToStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// FailWithReason 带稳定错误标识的失败响应
func FailWithReason(c *gin.Context, code int, reason, message string) {
	c.AbortWithStatusJSON(weberrors.CodeToStatus(code), Response{
		Code:    code,
		Message: message,
		Reason:  reason,
	})
}
