// Package handler 引擎的 HTTP 接口
package handler

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
	"github.com/lk2023060901/vfemart/pkg/web/middleware"
)

// errCallerMissing 令牌中没有可用的账户标识
var errCallerMissing = errors.New("caller account missing in token")

// Router 各 Handler 共用的路由注册接口
type Router interface {
	Register(r gin.IRouter)
}

// ErrorCode 引擎错误到业务错误码的映射
func ErrorCode(err error) int {
	if errors.Is(err, errCallerMissing) {
		return weberrors.CodeUnAuthorized
	}
	switch vfeerr.KindOf(err) {
	case vfeerr.KindAuthentication:
		return weberrors.CodeUnAuthorized
	case vfeerr.KindInvalid:
		return weberrors.CodeInvalidParams
	case vfeerr.KindResourceExhausted:
		return weberrors.CodeResourceExhausted
	case vfeerr.KindEconomic:
		return weberrors.CodeConflict
	case vfeerr.KindStateMachine:
		if errors.Is(err, vfeerr.ErrRoleInvalid) || errors.Is(err, vfeerr.ErrOperationNotAllowed) {
			return weberrors.CodeForbidden
		}
		return weberrors.CodeConflict
	case vfeerr.KindNotFound:
		return weberrors.CodeNotFound
	default:
		return weberrors.CodeInternalError
	}
}

// fail 写出引擎错误，内部错误记录日志并隐藏细节
func fail(c *gin.Context, l logger.Logger, op string, err error) {
	code := ErrorCode(err)
	if code == weberrors.CodeInternalError {
		l.ErrorContext(c.Request.Context(), "request failed",
			"op", op,
			"path", c.FullPath(),
			"error", err,
		)
		web.FailWithReason(c, code, vfeerr.Code(err), "internal error")
		return
	}
	l.DebugContext(c.Request.Context(), "request rejected",
		"op", op,
		"reason", vfeerr.Code(err),
		"error", err,
	)
	web.FailWithReason(c, code, vfeerr.Code(err), err.Error())
}

// invalid 参数解析失败
func invalid(c *gin.Context, err error) {
	web.FailWithReason(c, weberrors.CodeInvalidParams, vfeerr.Code(vfeerr.ErrValueInvalid), err.Error())
}

// caller 令牌 subject 即调用方账户
func caller(c *gin.Context) (model.AccountID, error) {
	sub := middleware.GetSubject(c)
	if sub == "" {
		return model.AccountID{}, errCallerMissing
	}
	id, err := model.ParseAccountID(sub)
	if err != nil {
		return model.AccountID{}, errors.Mark(err, errCallerMissing)
	}
	return id, nil
}

func parseUint32(s, name string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(vfeerr.ErrValueInvalid, "%s %q", name, s)
	}
	return uint32(v), nil
}

// itemKey 解析路径中的 :brand 与 :item
func itemKey(c *gin.Context) (model.ItemKey, error) {
	brand, err := parseUint32(c.Param("brand"), "brand")
	if err != nil {
		return model.ItemKey{}, err
	}
	item, err := parseUint32(c.Param("item"), "item")
	if err != nil {
		return model.ItemKey{}, err
	}
	return model.ItemKey{Brand: model.BrandID(brand), Item: model.ItemID(item)}, nil
}

func brandParam(c *gin.Context) (model.BrandID, error) {
	v, err := parseUint32(c.Param("brand"), "brand")
	return model.BrandID(v), err
}

func producerParam(c *gin.Context) (model.ProducerID, error) {
	v, err := parseUint32(c.Param("producer"), "producer")
	return model.ProducerID(v), err
}

func assetParam(c *gin.Context) (model.AssetID, error) {
	v, err := parseUint32(c.Param("asset"), "asset")
	return model.AssetID(v), err
}

// decodeHex 解码十六进制字段，允许 0x 前缀
func decodeHex(s, name string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrapf(vfeerr.ErrValueInvalid, "%s: %v", name, err)
	}
	return b, nil
}

// NewRouters 引擎全部接口
func NewRouters(eng *service.Engine, l logger.Logger) []Router {
	return []Router{
		NewDeviceHandler(eng, l),
		NewItemHandler(eng, l),
		NewAdminHandler(eng, l),
		NewQueryHandler(eng, l),
	}
}
