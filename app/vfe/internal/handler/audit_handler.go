package handler

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

// ReportReader 训练报告审计查询，*dao.ReportDAO 满足该接口
type ReportReader interface {
	ListByDevice(ctx context.Context, pk model.PublicKey, limit uint64) ([]*dao.ReportRecord, error)
	ListByOwner(ctx context.Context, owner model.AccountID, limit uint64) ([]*dao.ReportRecord, error)
}

var _ ReportReader = (*dao.ReportDAO)(nil)

// AuditHandler 历史训练报告
type AuditHandler struct {
	reader ReportReader
	logger logger.Logger
}

// NewAuditHandler 创建审计处理器
func NewAuditHandler(r ReportReader, l logger.Logger) *AuditHandler {
	return &AuditHandler{
		reader: r,
		logger: l.Named("handler.audit"),
	}
}

// Register 注册路由
func (h *AuditHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	{
		api.GET("/devices/:pk/reports", h.ByDevice)
		api.GET("/accounts/:account/reports", h.ByOwner)
	}
}

func limitQuery(c *gin.Context) (uint64, error) {
	limit, err := strconv.ParseUint(web.GetQuery(c, "limit", "0"), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(vfeerr.ErrValueInvalid, "limit %q", c.Query("limit"))
	}
	return limit, nil
}

func (h *AuditHandler) list(c *gin.Context, recs []*dao.ReportRecord, err error) {
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to list reports", "error", err)
		web.Fail(c, weberrors.CodeInternalError, "internal error")
		return
	}
	if recs == nil {
		recs = []*dao.ReportRecord{}
	}
	web.Success(c, recs)
}

// ByDevice 设备最近的训练报告，limit 为 0 时使用默认条数
// @Router /api/v1/devices/{pk}/reports [get]
func (h *AuditHandler) ByDevice(c *gin.Context) {
	pk, err := model.ParsePublicKey(c.Param("pk"))
	if err != nil {
		fail(c, h.logger, "reports_by_device", err)
		return
	}
	limit, err := limitQuery(c)
	if err != nil {
		invalid(c, err)
		return
	}
	recs, err := h.reader.ListByDevice(c.Request.Context(), pk, limit)
	h.list(c, recs, err)
}

// ByOwner 账户最近的训练报告
// @Router /api/v1/accounts/{account}/reports [get]
func (h *AuditHandler) ByOwner(c *gin.Context) {
	who, err := accountParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	limit, err := limitQuery(c)
	if err != nil {
		invalid(c, err)
		return
	}
	recs, err := h.reader.ListByOwner(c.Request.Context(), who, limit)
	h.list(c, recs, err)
}
