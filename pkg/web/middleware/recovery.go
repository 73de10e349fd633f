package middleware

import (
	"net/http"
	"net/http/httputil"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/pkg/logger"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

// Recovery 适配 pkg/logger 的异常恢复中间件
func Recovery(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				httpRequest, _ := httputil.DumpRequest(c.Request, false)
				l.Error("http recovery from panic",
					"error", err,
					"request", string(httpRequest),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    weberrors.CodeInternalError,
					"message": "internal error",
					"data":    nil,
				})
			}
		}()
		c.Next()
	}
}
