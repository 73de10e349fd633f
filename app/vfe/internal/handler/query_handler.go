package handler

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
)

// QueryHandler 只读查询
type QueryHandler struct {
	query  *service.QueryService
	logger logger.Logger
}

// NewQueryHandler 创建查询处理器
func NewQueryHandler(eng *service.Engine, l logger.Logger) *QueryHandler {
	return &QueryHandler{
		query:  eng.Query,
		logger: l.Named("handler.query"),
	}
}

// Register 注册路由
func (h *QueryHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	{
		api.GET("/clock", h.Clock)
		api.GET("/incentive-token", h.IncentiveToken)
		api.GET("/brands/:brand", h.Brand)
		api.GET("/brands/:brand/approvals/:producer", h.Approval)
		api.GET("/producers/:producer", h.Producer)
		api.GET("/producers/:producer/escrow/:asset", h.Escrow)
		api.GET("/devices/:pk", h.Device)
		api.GET("/items/:brand/:item", h.Item)
		api.GET("/items/:brand/:item/charging-cost", h.ChargingCost)
		api.GET("/items/:brand/:item/level-up-cost", h.LevelUpCost)
		api.GET("/accounts/:account", h.Account)
		api.GET("/accounts/:account/items", h.ItemsOwned)
		api.GET("/accounts/:account/balances/:asset", h.Balance)
	}
}

func accountParam(c *gin.Context) (model.AccountID, error) {
	return model.ParseAccountID(c.Param("account"))
}

// respond 统一处理查询结果
func (h *QueryHandler) respond(c *gin.Context, op string, data any, err error) {
	if err != nil {
		fail(c, h.logger, op, err)
		return
	}
	web.Success(c, data)
}

// Clock 全局纪元
// @Router /api/v1/clock [get]
func (h *QueryHandler) Clock(c *gin.Context) {
	web.Success(c, h.query.Clock())
}

// IncentiveToken 当前激励代币
// @Router /api/v1/incentive-token [get]
func (h *QueryHandler) IncentiveToken(c *gin.Context) {
	asset, err := h.query.IncentiveToken()
	h.respond(c, "incentive_token", gin.H{"asset": asset}, err)
}

// Brand 品牌详情
// @Router /api/v1/brands/{brand} [get]
func (h *QueryHandler) Brand(c *gin.Context) {
	id, err := brandParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	b, err := h.query.Brand(id)
	h.respond(c, "brand", b, err)
}

// Approval 铸造额度
// @Router /api/v1/brands/{brand}/approvals/{producer} [get]
func (h *QueryHandler) Approval(c *gin.Context) {
	brand, err := brandParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	producer, err := producerParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	a, err := h.query.Approval(brand, producer)
	h.respond(c, "approval", a, err)
}

// Producer 生产商详情
// @Router /api/v1/producers/{producer} [get]
func (h *QueryHandler) Producer(c *gin.Context) {
	id, err := producerParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	p, err := h.query.Producer(id)
	h.respond(c, "producer", p, err)
}

// Escrow 生产商托管余额
// @Router /api/v1/producers/{producer}/escrow/{asset} [get]
func (h *QueryHandler) Escrow(c *gin.Context) {
	producer, err := producerParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	asset, err := assetParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	web.Success(c, gin.H{"balance": h.query.EscrowBalance(asset, producer)})
}

// Device 设备详情
// @Router /api/v1/devices/{pk} [get]
func (h *QueryHandler) Device(c *gin.Context) {
	pk, err := model.ParsePublicKey(c.Param("pk"))
	if err != nil {
		fail(c, h.logger, "device", err)
		return
	}
	d, err := h.query.Device(pk)
	h.respond(c, "device", d, err)
}

// Item 道具详情
// @Router /api/v1/items/{brand}/{item} [get]
func (h *QueryHandler) Item(c *gin.Context) {
	key, err := itemKey(c)
	if err != nil {
		invalid(c, err)
		return
	}
	it, err := h.query.Item(key)
	h.respond(c, "item", it, err)
}

// ChargingCost 充电报价
// @Router /api/v1/items/{brand}/{item}/charging-cost [get]
func (h *QueryHandler) ChargingCost(c *gin.Context) {
	key, err := itemKey(c)
	if err != nil {
		invalid(c, err)
		return
	}
	amount, err := strconv.ParseUint(web.GetQuery(c, "amount", "1"), 10, 16)
	if err != nil {
		invalid(c, errors.Wrapf(vfeerr.ErrValueInvalid, "amount %q", c.Query("amount")))
		return
	}
	cost, err := h.query.ChargingCost(key, uint16(amount))
	h.respond(c, "charging_cost", CostResponse{Cost: cost}, err)
}

// LevelUpCost 调用方为道具升一级的报价
// @Router /api/v1/items/{brand}/{item}/level-up-cost [get]
func (h *QueryHandler) LevelUpCost(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "level_up_cost", err)
		return
	}
	key, err := itemKey(c)
	if err != nil {
		invalid(c, err)
		return
	}
	cost, err := h.query.LevelUpCost(who, key)
	h.respond(c, "level_up_cost", CostResponse{Cost: cost}, err)
}

// Account 按当前纪元结算后的账户视图
// @Router /api/v1/accounts/{account} [get]
func (h *QueryHandler) Account(c *gin.Context) {
	who, err := accountParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	acc, err := h.query.Account(who)
	h.respond(c, "account", acc, err)
}

// ItemsOwned 账户在品牌下持有的道具
// @Router /api/v1/accounts/{account}/items [get]
func (h *QueryHandler) ItemsOwned(c *gin.Context) {
	who, err := accountParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	brand, err := parseUint32(c.Query("brand"), "brand")
	if err != nil {
		invalid(c, err)
		return
	}
	items, err := h.query.ItemsOwnedBy(who, model.BrandID(brand))
	if items == nil {
		items = []model.ItemDetail{}
	}
	h.respond(c, "items_owned", items, err)
}

// Balance 账户资产余额
// @Router /api/v1/accounts/{account}/balances/{asset} [get]
func (h *QueryHandler) Balance(c *gin.Context) {
	who, err := accountParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	asset, err := assetParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	web.Success(c, gin.H{"balance": h.query.Balance(asset, who)})
}
