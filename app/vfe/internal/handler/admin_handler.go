package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/web"
)

// AdminHandler 品牌、生产商、设备登记与资产管理
type AdminHandler struct {
	admin  *service.AdminService
	logger logger.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(eng *service.Engine, l logger.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  eng.Admin,
		logger: l.Named("handler.admin"),
	}
}

// CreateBrandRequest 创建品牌
type CreateBrandRequest struct {
	SportType   model.SportType `json:"sport_type"`
	Rarity      model.Rarity    `json:"rarity"`
	MetadataURI string          `json:"metadata_uri"`
}

// ChangeOwnerRequest 变更生产商持有人
type ChangeOwnerRequest struct {
	NewOwner model.AccountID `json:"new_owner" binding:"required"`
}

// IncentiveTokenRequest 设置激励代币
type IncentiveTokenRequest struct {
	Asset model.AssetID `json:"asset"`
}

// MintAssetRequest 增发资产
type MintAssetRequest struct {
	To     model.AccountID `json:"to" binding:"required"`
	Amount model.Balance   `json:"amount" binding:"required"`
}

// ApproveMintRequest 增加铸造额度，cost 为空表示免费铸造
type ApproveMintRequest struct {
	Producer model.ProducerID `json:"producer" binding:"required"`
	Amount   uint32           `json:"amount"`
	Cost     *model.MintCost  `json:"cost"`
}

// RegisterDeviceRequest 登记设备
type RegisterDeviceRequest struct {
	PublicKey model.PublicKey  `json:"public_key" binding:"required"`
	Producer  model.ProducerID `json:"producer" binding:"required"`
	Brand     model.BrandID    `json:"brand" binding:"required"`
}

// Register 注册路由
func (h *AdminHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	{
		api.POST("/brands", h.CreateBrand)
		api.POST("/brands/:brand/approvals", h.ApproveMint)
		api.POST("/producers", h.RegisterProducer)
		api.PUT("/producers/:producer/owner", h.ChangeProducerOwner)
		api.PUT("/incentive-token", h.SetIncentiveToken)
		api.POST("/assets/:asset/mint", h.MintAsset)
		api.POST("/devices", h.RegisterDevice)
		api.DELETE("/devices/:pk", h.DeregisterDevice)
		api.POST("/devices/:pk/void", h.VoidDevice)
	}
}

// CreateBrand 品牌方创建品牌
// @Router /api/v1/brands [post]
func (h *AdminHandler) CreateBrand(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "create_brand", err)
		return
	}
	var req CreateBrandRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	id, err := h.admin.CreateBrand(c.Request.Context(), who, req.SportType, req.Rarity, req.MetadataURI)
	if err != nil {
		fail(c, h.logger, "create_brand", err)
		return
	}
	web.Success(c, gin.H{"brand": id})
}

// ApproveMint 品牌持有人为生产商增加额度
// @Router /api/v1/brands/{brand}/approvals [post]
func (h *AdminHandler) ApproveMint(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "approve_mint", err)
		return
	}
	brand, err := brandParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	var req ApproveMintRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.admin.ApproveMint(c.Request.Context(), who, brand, req.Producer, req.Amount, req.Cost); err != nil {
		fail(c, h.logger, "approve_mint", err)
		return
	}
	web.Success(c, nil)
}

// RegisterProducer 生产商注册
// @Router /api/v1/producers [post]
func (h *AdminHandler) RegisterProducer(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "producer_register", err)
		return
	}
	id, err := h.admin.ProducerRegister(c.Request.Context(), who)
	if err != nil {
		fail(c, h.logger, "producer_register", err)
		return
	}
	web.Success(c, gin.H{"producer": id})
}

// ChangeProducerOwner 变更生产商持有人
// @Router /api/v1/producers/{producer}/owner [put]
func (h *AdminHandler) ChangeProducerOwner(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "producer_owner_change", err)
		return
	}
	id, err := producerParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	var req ChangeOwnerRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.admin.ProducerOwnerChange(c.Request.Context(), who, id, req.NewOwner); err != nil {
		fail(c, h.logger, "producer_owner_change", err)
		return
	}
	web.Success(c, nil)
}

// SetIncentiveToken 根账户设置激励代币
// @Router /api/v1/incentive-token [put]
func (h *AdminHandler) SetIncentiveToken(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "set_incentive_token", err)
		return
	}
	var req IncentiveTokenRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.admin.SetIncentiveToken(c.Request.Context(), who, req.Asset); err != nil {
		fail(c, h.logger, "set_incentive_token", err)
		return
	}
	web.Success(c, nil)
}

// MintAsset 根账户增发资产
// @Router /api/v1/assets/{asset}/mint [post]
func (h *AdminHandler) MintAsset(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "mint_asset", err)
		return
	}
	asset, err := assetParam(c)
	if err != nil {
		invalid(c, err)
		return
	}
	var req MintAssetRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.admin.MintAsset(c.Request.Context(), who, asset, req.To, req.Amount); err != nil {
		fail(c, h.logger, "mint_asset", err)
		return
	}
	web.Success(c, nil)
}

// RegisterDevice 生产商登记设备并托管铸造价格
// @Router /api/v1/devices [post]
func (h *AdminHandler) RegisterDevice(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, "register_device", err)
		return
	}
	var req RegisterDeviceRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	if err := h.admin.RegisterDevice(c.Request.Context(), who, req.PublicKey, req.Producer, req.Brand); err != nil {
		fail(c, h.logger, "register_device", err)
		return
	}
	web.Success(c, nil)
}

func (h *AdminHandler) deviceTarget(c *gin.Context, op string) (model.AccountID, model.PublicKey, bool) {
	who, err := caller(c)
	if err != nil {
		fail(c, h.logger, op, err)
		return who, model.PublicKey{}, false
	}
	pk, err := model.ParsePublicKey(c.Param("pk"))
	if err != nil {
		fail(c, h.logger, op, err)
		return who, pk, false
	}
	return who, pk, true
}

// DeregisterDevice 注销未激活设备并退回托管
// @Router /api/v1/devices/{pk} [delete]
func (h *AdminHandler) DeregisterDevice(c *gin.Context) {
	who, pk, ok := h.deviceTarget(c, "deregister_device")
	if !ok {
		return
	}
	if err := h.admin.DeregisterDevice(c.Request.Context(), who, pk); err != nil {
		fail(c, h.logger, "deregister_device", err)
		return
	}
	web.Success(c, nil)
}

// VoidDevice 作废已激活设备
// @Router /api/v1/devices/{pk}/void [post]
func (h *AdminHandler) VoidDevice(c *gin.Context) {
	who, pk, ok := h.deviceTarget(c, "void_device")
	if !ok {
		return
	}
	if err := h.admin.VoidDevice(c.Request.Context(), who, pk); err != nil {
		fail(c, h.logger, "void_device", err)
		return
	}
	web.Success(c, nil)
}
