package model

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// Brand 品牌
type Brand struct {
	ID          BrandID   `json:"id"`
	Owner       AccountID `json:"owner"`        // 创建品牌的品牌方账户
	SportType   SportType `json:"sport_type"`   // 创建后不可变
	Rarity      Rarity    `json:"rarity"`       // 创建后不可变
	Approvals   uint32    `json:"approvals"`    // 曾获批的生产商数量，只增不减
	MetadataURI string    `json:"metadata_uri"` // 元数据地址
}

// Producer 生产商
type Producer struct {
	ID    ProducerID `json:"id"`
	Owner AccountID  `json:"owner"`
}

// MintCost 铸造价格
type MintCost struct {
	Asset AssetID `json:"asset"`
	Price Balance `json:"price"`
}

// ApprovalKey 铸造许可键
type ApprovalKey struct {
	Brand    BrandID    `json:"brand"`
	Producer ProducerID `json:"producer"`
}

// MintApproval 品牌对生产商的铸造许可
//
// LockedFunds 等于该许可下仍处于 Registered 状态的设备托管价格之和。
type MintApproval struct {
	Brand       BrandID    `json:"brand"`
	Producer    ProducerID `json:"producer"`
	Cost        *MintCost  `json:"cost,omitempty"`
	Remaining   uint32     `json:"remaining"`    // 剩余可注册数量
	Registered  uint32     `json:"registered"`   // 已注册未激活数量
	Activated   uint32     `json:"activated"`    // 已激活数量
	LockedFunds Balance    `json:"locked_funds"` // 托管中的资金
}

// Key 许可键
func (a *MintApproval) Key() ApprovalKey {
	return ApprovalKey{Brand: a.Brand, Producer: a.Producer}
}

// DeviceStatus 设备状态
type DeviceStatus uint8

const (
	DeviceRegistered DeviceStatus = iota
	DeviceActivated
	DeviceVoided
)

func (s DeviceStatus) String() string {
	switch s {
	case DeviceRegistered:
		return "registered"
	case DeviceActivated:
		return "activated"
	case DeviceVoided:
		return "voided"
	default:
		return "unknown"
	}
}

func (s DeviceStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *DeviceStatus) UnmarshalText(b []byte) error {
	for _, v := range []DeviceStatus{DeviceRegistered, DeviceActivated, DeviceVoided} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return errors.Wrapf(vfeerr.ErrValueInvalid, "unknown device status %q", b)
}

// Device 物理设备
type Device struct {
	PublicKey           PublicKey    `json:"public_key"`
	Brand               BrandID      `json:"brand"`
	Producer            ProducerID   `json:"producer"`
	SportType           SportType    `json:"sport_type"`
	Status              DeviceStatus `json:"status"`
	Item                *ItemID      `json:"item,omitempty"` // 绑定的道具
	Nonce               uint32       `json:"nonce"`          // 绑定签名计数，严格递增
	LastReportTimestamp uint32       `json:"last_report_timestamp"`
	MintCost            *MintCost    `json:"mint_cost,omitempty"` // 注册时托管的价格
}

// ItemKey 道具键
type ItemKey struct {
	Brand BrandID `json:"brand"`
	Item  ItemID  `json:"item"`
}

const MaxBattery uint16 = 100

// Item 道具 (VFE)
type Item struct {
	Brand             BrandID     `json:"brand"`
	ID                ItemID      `json:"id"`
	Rarity            Rarity      `json:"rarity"`
	Base              Ability     `json:"base_ability"`    // 创建时确定
	Current           Ability     `json:"current_ability"` // 逐项不小于 Base
	Level             uint16      `json:"level"`
	RemainingBattery  uint16      `json:"remaining_battery"` // 0..=100
	AvailablePoints   uint16      `json:"available_points"`
	GeneSeed          Hash        `json:"gene_seed"`
	DeviceKey         *PublicKey  `json:"device_key,omitempty"` // 绑定设备的反向引用
	UpgradeFinishesAt BlockNumber `json:"upgrade_finishes_at"`
	CreatedAt         BlockNumber `json:"created_at"`
}

// Key 道具键
func (it *Item) Key() ItemKey {
	return ItemKey{Brand: it.Brand, Item: it.ID}
}

// IsUpgrading 当前高度是否处于升级冷却中
func (it *Item) IsUpgrading(now BlockNumber) bool {
	return it.UpgradeFinishesAt > now
}

// UserAccount 用户资源账户
type UserAccount struct {
	Owner                AccountID   `json:"owner"`
	Energy               uint16      `json:"energy"`
	EnergyTotal          uint16      `json:"energy_total"`
	Earned               Balance     `json:"earned"`
	EarningCap           Balance     `json:"earning_cap"`
	LastRestoreEpoch     BlockNumber `json:"last_restore_epoch"`
	LastEarnedResetEpoch BlockNumber `json:"last_earned_reset_epoch"`
	CreatedAt            BlockNumber `json:"created_at"`
}

// EpochClock 全局纪元
type EpochClock struct {
	Height                  BlockNumber `json:"height"`
	LastEnergyRecoveryEpoch BlockNumber `json:"last_energy_recovery_epoch"`
	LastDailyResetEpoch     BlockNumber `json:"last_daily_reset_epoch"`
}

// ItemDetail 查询返回的道具详情
type ItemDetail struct {
	Item
	Owner     AccountID `json:"owner"`
	SportType SportType `json:"sport_type"`
}
