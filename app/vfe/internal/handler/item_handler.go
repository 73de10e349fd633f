package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
)

// ItemHandler 道具养成与转让
type ItemHandler struct {
	progression *service.ProgressionService
	logger      logger.Logger
}

// NewItemHandler 创建道具处理器
func NewItemHandler(eng *service.Engine, l logger.Logger) *ItemHandler {
	return &ItemHandler{
		progression: eng.Progression,
		logger:      l.Named("handler.item"),
	}
}

// RestorePowerRequest 充电请求
type RestorePowerRequest struct {
	Amount uint16 `json:"amount" binding:"required"`
}

// CostResponse 本次操作消耗的激励代币
type CostResponse struct {
	Cost model.Balance `json:"cost"`
}

// TransferRequest 转让请求
type TransferRequest struct {
	To model.AccountID `json:"to" binding:"required"`
}

// Register 注册路由
func (h *ItemHandler) Register(r gin.IRouter) {
	items := r.Group("/api/v1/items/:brand/:item")
	{
		items.POST("/power", h.RestorePower)
		items.POST("/level-up", h.LevelUp)
		items.POST("/abilities", h.AllocateAbility)
		items.POST("/transfer", h.Transfer)
	}
	r.POST("/api/v1/energy/restore", h.RestoreEnergy)
}

// target 解析调用方与路径中的道具，失败时已写出响应
func (h *ItemHandler) target(c *gin.Context, op string) (model.AccountID, model.ItemKey, bool) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, op, err)
		return who, model.ItemKey{}, false
	}
	key, err := itemKey(c)
	if err != nil {
		invalid(c, err)
		return who, key, false
	}
	return who, key, true
}

// RestorePower 为道具充电
// @Router /api/v1/items/{brand}/{item}/power [post]
func (h *ItemHandler) RestorePower(c *gin.Context) {
	who, key, ok := h.target(c, "restore_power")
	if !ok {
		return
	}
	var req RestorePowerRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	cost, err := h.progression.RestorePower(c.Request.Context(), who, key, req.Amount)
	if err != nil {
		fail(c, h.logger, "restore_power", err)
		return
	}
	web.Success(c, CostResponse{Cost: cost})
}

// LevelUp 道具升级
// @Router /api/v1/items/{brand}/{item}/level-up [post]
func (h *ItemHandler) LevelUp(c *gin.Context) {
	who, key, ok := h.target(c, "level_up")
	if !ok {
		return
	}
	cost, err := h.progression.LevelUp(c.Request.Context(), who, key)
	if err != nil {
		fail(c, h.logger, "level_up", err)
		return
	}
	web.Success(c, CostResponse{Cost: cost})
}

// AllocateAbility 分配可用点数
// @Router /api/v1/items/{brand}/{item}/abilities [post]
func (h *ItemHandler) AllocateAbility(c *gin.Context) {
	who, key, ok := h.target(c, "allocate_ability")
	if !ok {
		return
	}
	var delta model.Ability
	if !web.BindAndValidate(c, &delta) {
		return
	}
	if err := h.progression.AllocateAbility(c.Request.Context(), who, key, delta); err != nil {
		fail(c, h.logger, "allocate_ability", err)
		return
	}
	web.Success(c, nil)
}

// Transfer 转让道具
// @Router /api/v1/items/{brand}/{item}/transfer [post]
func (h *ItemHandler) Transfer(c *gin.Context) {
	who, key, ok := h.target(c, "transfer_item")
	if !ok {
		return
	}
	var req TransferRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.progression.TransferItem(c.Request.Context(), who, key, req.To); err != nil {
		fail(c, h.logger, "transfer_item", err)
		return
	}
	web.Success(c, nil)
}

// RestoreEnergy 立即按纪元恢复调用方能量
// @Router /api/v1/energy/restore [post]
func (h *ItemHandler) RestoreEnergy(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "restore_energy", err)
		return
	}
	energy, err := h.progression.RestoreEnergy(c.Request.Context(), who)
	if err != nil {
		fail(c, h.logger, "restore_energy", err)
		return
	}
	web.Success(c, gin.H{"energy": energy})
}
