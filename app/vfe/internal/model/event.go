package model

import "time"

// EventType 事件类型
type EventType string

const (
	EventBrandCreated         EventType = "brand_created"
	EventProducerRegistered   EventType = "producer_registered"
	EventProducerOwnerChanged EventType = "producer_owner_changed"
	EventApprovedMint         EventType = "approved_mint"
	EventDeviceRegistered     EventType = "device_registered"
	EventDeviceDeregistered   EventType = "device_deregistered"
	EventDeviceVoided         EventType = "device_voided"
	EventItemCreated          EventType = "item_created"
	EventMintSettled          EventType = "mint_settled"
	EventDeviceBound          EventType = "device_bound"
	EventDeviceUnbound        EventType = "device_unbound"
	EventTrainingRewarded     EventType = "training_rewarded"
	EventPowerRestored        EventType = "power_restored"
	EventLevelUp              EventType = "level_up"
	EventAbilityAllocated     EventType = "ability_allocated"
	EventEnergyRestored       EventType = "energy_restored"
	EventItemTransferred      EventType = "item_transferred"
	EventIncentiveTokenSet    EventType = "incentive_token_set"
	EventAssetMinted          EventType = "asset_minted"
	EventGlobalEnergyRecovery EventType = "global_energy_recovery"
	EventGlobalDailyReset     EventType = "global_daily_reset"
)

// Event 已提交调用产生的事件
type Event struct {
	ID      int64       `json:"id"`
	Type    EventType   `json:"type"`
	Height  BlockNumber `json:"height"`
	Time    time.Time   `json:"time"`
	Payload any         `json:"payload"`
}

type BrandCreated struct {
	Brand     BrandID   `json:"brand"`
	Owner     AccountID `json:"owner"`
	SportType SportType `json:"sport_type"`
	Rarity    Rarity    `json:"rarity"`
}

type ProducerRegistered struct {
	Producer ProducerID `json:"producer"`
	Owner    AccountID  `json:"owner"`
}

type ProducerOwnerChanged struct {
	Producer ProducerID `json:"producer"`
	From     AccountID  `json:"from"`
	To       AccountID  `json:"to"`
}

type ApprovedMint struct {
	Brand    BrandID    `json:"brand"`
	Producer ProducerID `json:"producer"`
	Amount   uint32     `json:"amount"`
	Cost     *MintCost  `json:"cost,omitempty"`
}

type DeviceRegisteredEvent struct {
	PublicKey PublicKey  `json:"public_key"`
	Brand     BrandID    `json:"brand"`
	Producer  ProducerID `json:"producer"`
}

type DeviceDeregistered struct {
	PublicKey PublicKey `json:"public_key"`
	Refund    Balance   `json:"refund"`
}

type DeviceVoidedEvent struct {
	PublicKey PublicKey `json:"public_key"`
	Item      *ItemID   `json:"item,omitempty"`
}

type ItemCreated struct {
	Brand  BrandID   `json:"brand"`
	Item   ItemID    `json:"item"`
	Owner  AccountID `json:"owner"`
	Rarity Rarity    `json:"rarity"`
	Base   Ability   `json:"base_ability"`
}

// MintSettled 激活时托管资金的结算
type MintSettled struct {
	Brand      BrandID    `json:"brand"`
	Producer   ProducerID `json:"producer"`
	Asset      AssetID    `json:"asset"`
	UserShare  Balance    `json:"user_share"`
	BrandShare Balance    `json:"brand_share"`
}

type DeviceBound struct {
	PublicKey PublicKey `json:"public_key"`
	Brand     BrandID   `json:"brand"`
	Item      ItemID    `json:"item"`
	Account   AccountID `json:"account"`
}

type DeviceUnbound struct {
	PublicKey PublicKey `json:"public_key"`
	Brand     BrandID   `json:"brand"`
	Item      ItemID    `json:"item"`
	Account   AccountID `json:"account"`
}

type TrainingRewarded struct {
	PublicKey PublicKey      `json:"public_key"`
	Brand     BrandID        `json:"brand"`
	Item      ItemID         `json:"item"`
	Owner     AccountID      `json:"owner"`
	PowerUsed uint16         `json:"power_used"`
	Volume    uint64         `json:"volume"`
	Reward    Balance        `json:"reward"`
	Report    TrainingReport `json:"report"`
}

type PowerRestored struct {
	Brand  BrandID `json:"brand"`
	Item   ItemID  `json:"item"`
	Amount uint16  `json:"amount"`
	Cost   Balance `json:"cost"`
}

type LevelUp struct {
	Brand BrandID `json:"brand"`
	Item  ItemID  `json:"item"`
	Level uint16  `json:"level"`
	Cost  Balance `json:"cost"`
}

type AbilityAllocated struct {
	Brand BrandID `json:"brand"`
	Item  ItemID  `json:"item"`
	Delta Ability `json:"delta"`
}

type EnergyRestored struct {
	Account AccountID `json:"account"`
	Energy  uint16    `json:"energy"`
}

type ItemTransferred struct {
	Brand BrandID   `json:"brand"`
	Item  ItemID    `json:"item"`
	From  AccountID `json:"from"`
	To    AccountID `json:"to"`
}

type IncentiveTokenSet struct {
	Asset AssetID `json:"asset"`
}

type AssetMinted struct {
	Asset   AssetID   `json:"asset"`
	Account AccountID `json:"account"`
	Amount  Balance   `json:"amount"`
}

type GlobalEpoch struct {
	Epoch BlockNumber `json:"epoch"`
}
