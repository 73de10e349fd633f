package service

import (
	"time"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/pkg/config"
)

// Config 引擎参数
type Config struct {
	// CostUnit 奖励与费用的最小计价单位
	CostUnit uint64 `mapstructure:"cost_unit" json:"cost_unit" yaml:"cost_unit" validate:"required"`
	// EnergyRecoveryPeriod 能量恢复纪元长度（区块）
	EnergyRecoveryPeriod uint64 `mapstructure:"energy_recovery_period" json:"energy_recovery_period" yaml:"energy_recovery_period" validate:"required"`
	// DailyResetPeriod 收益清零纪元长度（区块）
	DailyResetPeriod uint64 `mapstructure:"daily_reset_period" json:"daily_reset_period" yaml:"daily_reset_period" validate:"required"`
	// LevelUpCostFactor 升级费用系数
	LevelUpCostFactor uint64 `mapstructure:"level_up_cost_factor" json:"level_up_cost_factor" yaml:"level_up_cost_factor" validate:"required"`
	// InitEnergy 新账户能量
	InitEnergy uint16 `mapstructure:"init_energy" json:"init_energy" yaml:"init_energy" validate:"required"`
	// InitEarningCap 新账户每日收益上限（以 CostUnit 计）
	InitEarningCap uint64 `mapstructure:"init_earning_cap" json:"init_earning_cap" yaml:"init_earning_cap" validate:"required"`
	// EnergyRecoveryRatioPercent 每个纪元恢复的能量比例
	EnergyRecoveryRatioPercent uint8 `mapstructure:"energy_recovery_ratio_percent" json:"energy_recovery_ratio_percent" yaml:"energy_recovery_ratio_percent" validate:"lte=100"`
	// ReportValidityWindow 训练报告有效期
	ReportValidityWindow time.Duration `mapstructure:"report_validity_window" json:"report_validity_window" yaml:"report_validity_window" validate:"required"`
	// UserMintProfitPercent 激活时用户分得的铸造价格比例
	UserMintProfitPercent uint8 `mapstructure:"user_mint_profit_percent" json:"user_mint_profit_percent" yaml:"user_mint_profit_percent" validate:"lte=100"`
	// MaxGenerateRandom 拒绝采样的最大重抽次数
	MaxGenerateRandom uint32 `mapstructure:"max_generate_random" json:"max_generate_random" yaml:"max_generate_random"`
	// PalletID 托管子账户命名空间
	PalletID string `mapstructure:"pallet_id" json:"pallet_id" yaml:"pallet_id" validate:"required"`
	// IncentiveToken 初始激励代币，状态中已设置时以状态为准
	IncentiveToken *uint32 `mapstructure:"incentive_token" json:"incentive_token" yaml:"incentive_token"`
	// LevelUpCooldown 升级冷却（区块），0 表示立即完成
	LevelUpCooldown uint64 `mapstructure:"level_up_cooldown" json:"level_up_cooldown" yaml:"level_up_cooldown"`
	// BlockInterval 出块间隔，驱动纪元推进
	BlockInterval time.Duration `mapstructure:"block_interval" json:"block_interval" yaml:"block_interval" validate:"required"`
	// RandomSeed 非空时使用确定性随机源，仅用于回放环境
	RandomSeed string `mapstructure:"random_seed" json:"random_seed" yaml:"random_seed"`

	RootAccounts        []string `mapstructure:"root_accounts" json:"root_accounts" yaml:"root_accounts"`
	BrandAuthorities    []string `mapstructure:"brand_authorities" json:"brand_authorities" yaml:"brand_authorities"`
	ProducerAuthorities []string `mapstructure:"producer_authorities" json:"producer_authorities" yaml:"producer_authorities"`
}

// DefaultConfig 默认引擎参数
func DefaultConfig() *Config {
	token := uint32(0)
	return &Config{
		CostUnit:                   100000,
		EnergyRecoveryPeriod:       240,
		DailyResetPeriod:           1440,
		LevelUpCostFactor:          7,
		InitEnergy:                 8,
		InitEarningCap:             500,
		EnergyRecoveryRatioPercent: 25,
		ReportValidityWindow:       24 * time.Hour,
		UserMintProfitPercent:      30,
		MaxGenerateRandom:          10,
		PalletID:                   "poke/vfe",
		IncentiveToken:             &token,
		LevelUpCooldown:            0,
		BlockInterval:              time.Minute,
	}
}

// MergeConfig 合并默认配置并校验
func MergeConfig(cfg *Config) (*Config, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := config.NewValidator().Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (c *Config) costUnit() model.Balance {
	return model.Balance(c.CostUnit)
}

// energyFloor 等级对应的能量上限下限
func (c *Config) energyFloor(level uint16) uint16 {
	floor := uint32(c.InitEnergy) + uint32(level/2)*4
	if floor > 0xFFFF {
		return 0xFFFF
	}
	return uint16(floor)
}

// earningCapFloor 能量上限对应的收益上限下限
func (c *Config) earningCapFloor(energyTotal uint16) (model.Balance, error) {
	capUnits, err := model.Balance(c.InitEarningCap).CheckedMul(model.Balance(energyTotal))
	if err != nil {
		return 0, err
	}
	return (capUnits / model.Balance(c.InitEnergy)).CheckedMul(c.costUnit())
}

// initEarningCap 新账户的收益上限
func (c *Config) initEarningCap() (model.Balance, error) {
	return model.Balance(c.InitEarningCap).CheckedMul(c.costUnit())
}
