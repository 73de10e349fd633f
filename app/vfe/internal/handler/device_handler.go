package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
)

// DeviceHandler 设备绑定与训练报告
type DeviceHandler struct {
	binding *service.BindingService
	report  *service.ReportService
	logger  logger.Logger
}

// NewDeviceHandler 创建设备处理器
func NewDeviceHandler(eng *service.Engine, l logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		binding: eng.Binding,
		report:  eng.Report,
		logger:  l.Named("handler.device"),
	}
}

// BindRequest HTTP 绑定请求，公钥与签名为十六进制
type BindRequest struct {
	PublicKey string        `json:"public_key" binding:"required"`
	Signature string        `json:"signature" binding:"required"`
	Nonce     uint32        `json:"nonce" binding:"required"`
	Item      *model.ItemID `json:"item"`
}

// ReportRequest HTTP 训练报告，report 为 17 字节报告的十六进制
type ReportRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Report    string `json:"report" binding:"required"`
}

// Register 注册路由
func (h *DeviceHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	{
		api.POST("/bindings", h.Bind)
		api.POST("/bindings/validate", h.ValidateBind)
		api.DELETE("/items/:brand/:item/binding", h.Unbind)
		api.POST("/reports", h.SubmitReport)
		api.POST("/reports/validate", h.ValidateReport)
	}
}

func (h *DeviceHandler) bindRequest(c *gin.Context) (service.BindRequest, bool) {
	var req BindRequest
	if !web.BindAndValidate(c, &req) {
		return service.BindRequest{}, false
	}
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "bind_device", err)
		return service.BindRequest{}, false
	}
	pk, err := model.ParsePublicKey(req.PublicKey)
	if err != nil {
		fail(c, h.logger, "bind_device", err)
		return service.BindRequest{}, false
	}
	sig, err := decodeHex(req.Signature, "signature")
	if err != nil {
		invalid(c, err)
		return service.BindRequest{}, false
	}
	return service.BindRequest{
		Account:   who,
		PublicKey: pk,
		Signature: sig,
		Nonce:     req.Nonce,
		Item:      req.Item,
	}, true
}

// Bind 绑定设备，未指定 item 时铸造新道具
// @Router /api/v1/bindings [post]
func (h *DeviceHandler) Bind(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	res, err := h.binding.BindDevice(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, "bind_device", err)
		return
	}
	web.Success(c, res)
}

// ValidateBind 预检绑定，不改变状态
// @Router /api/v1/bindings/validate [post]
func (h *DeviceHandler) ValidateBind(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	if err := h.binding.ValidateBind(c.Request.Context(), req); err != nil {
		fail(c, h.logger, "validate_bind", err)
		return
	}
	web.Success(c, nil)
}

// Unbind 解除道具绑定
// @Router /api/v1/items/{brand}/{item}/binding [delete]
func (h *DeviceHandler) Unbind(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "unbind_device", err)
		return
	}
	key, err := itemKey(c)
	if err != nil {
		invalid(c, err)
		return
	}
	if err := h.binding.UnbindDevice(c.Request.Context(), who, key); err != nil {
		fail(c, h.logger, "unbind_device", err)
		return
	}
	web.Success(c, nil)
}

func (h *DeviceHandler) reportRequest(c *gin.Context) (service.ReportRequest, bool) {
	var req ReportRequest
	if !web.BindAndValidate(c, &req) {
		return service.ReportRequest{}, false
	}
	pk, err := model.ParsePublicKey(req.PublicKey)
	if err != nil {
		fail(c, h.logger, "submit_report", err)
		return service.ReportRequest{}, false
	}
	sig, err := decodeHex(req.Signature, "signature")
	if err != nil {
		invalid(c, err)
		return service.ReportRequest{}, false
	}
	raw, err := decodeHex(req.Report, "report")
	if err != nil {
		invalid(c, err)
		return service.ReportRequest{}, false
	}
	return service.ReportRequest{PublicKey: pk, Signature: sig, Report: raw}, true
}

// SubmitReport 结算训练报告，由设备签名认证
// @Router /api/v1/reports [post]
func (h *DeviceHandler) SubmitReport(c *gin.Context) {
	req, ok := h.reportRequest(c)
	if !ok {
		return
	}
	res, err := h.report.SubmitReport(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, "submit_report", err)
		return
	}
	web.Success(c, res)
}

// ValidateReport 预检训练报告
// @Router /api/v1/reports/validate [post]
func (h *DeviceHandler) ValidateReport(c *gin.Context) {
	req, ok := h.reportRequest(c)
	if !ok {
		return
	}
	if err := h.report.ValidateReport(c.Request.Context(), req); err != nil {
		fail(c, h.logger, "validate_report", err)
		return
	}
	web.Success(c, nil)
}
