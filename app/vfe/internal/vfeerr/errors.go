// Package vfeerr 引擎错误定义
//
// 每个哨兵错误归属一个类别，调用方用 errors.Is 判断具体错误，用 KindOf 判断类别。
package vfeerr

import (
	"github.com/cockroachdb/errors"
)

// Kind 错误类别
type Kind string

const (
	KindUnknown Kind = ""
	// KindAuthentication 签名、nonce、时间戳校验失败，不可自动重试
	KindAuthentication Kind = "authentication"
	// KindResourceExhausted 能量、电量、收益上限，需等待恢复
	KindResourceExhausted Kind = "resource_exhausted"
	// KindEconomic 余额、额度、价格变更等经济前置条件
	KindEconomic Kind = "economic_precondition"
	// KindStateMachine 状态机冲突与权限
	KindStateMachine Kind = "state_machine"
	// KindNotFound 目标不存在
	KindNotFound Kind = "not_found"
	// KindInvalid 参数格式或取值非法
	KindInvalid Kind = "invalid"
	// KindInternal 溢出等建模错误
	KindInternal Kind = "internal"
)

var kinds = map[error]Kind{}

func define(msg string, kind Kind) error {
	err := errors.New(msg)
	kinds[err] = kind
	return err
}

// 认证类
var (
	ErrSignatureInvalid       = define("signature invalid", KindAuthentication)
	ErrNonceNotIncreasing     = define("nonce must be greater than before", KindAuthentication)
	ErrReportExpired          = define("training report outside validity window", KindAuthentication)
	ErrPublicKeyInvalid       = define("device public key invalid", KindAuthentication)
	ErrValueInvalid           = define("value invalid", KindInvalid)
	// ErrTimestampNotIncreasing 属于 ErrValueInvalid，但 ErrValueInvalid 不匹配它
	ErrTimestampNotIncreasing = errors.Wrap(ErrValueInvalid, "report timestamp must be greater than before")
)

// 资源类
var (
	ErrEnergyExhausted                = define("user energy exhausted", KindResourceExhausted)
	ErrEarnedCap                      = define("daily earning cap reached", KindResourceExhausted)
	ErrInsufficientTraining           = define("training too short to consume power", KindResourceExhausted)
	ErrLowBattery                     = define("item battery exhausted", KindResourceExhausted)
	ErrTrainingReportOutOfNormalRange = define("training frequency out of normal range", KindResourceExhausted)
	ErrEnergyFull                     = define("user energy is full", KindResourceExhausted)
)

// 经济类
var (
	ErrBalanceNotEnough      = define("balance not enough", KindEconomic)
	ErrAllowanceExhausted    = define("mint allowance exhausted", KindEconomic)
	ErrRemainingMintNotZero  = define("remaining mint amount is not zero", KindEconomic)
	ErrIncentiveTokenNotSet  = define("incentive token not set", KindEconomic)
	ErrEscrowBalanceMismatch = define("escrow balance mismatch", KindEconomic)
)

// 状态机类
var (
	ErrDeviceVoided        = define("device voided", KindStateMachine)
	ErrDeviceAlreadyBound  = define("device already bound", KindStateMachine)
	ErrDeviceNotBound      = define("device not bound", KindStateMachine)
	ErrDeviceNotRegistered = define("device is not in registered status", KindStateMachine)
	ErrDeviceExists        = define("device public key already registered", KindStateMachine)
	ErrOperationNotAllowed = define("operation is not allowed", KindStateMachine)
	ErrRoleInvalid         = define("caller lacks required role", KindStateMachine)
	ErrItemFullBattery     = define("item battery already full", KindStateMachine)
	ErrItemNotFullBattery  = define("item battery must be full", KindStateMachine)
	ErrItemUpgrading       = define("item is upgrading", KindStateMachine)
)

// 不存在类
var (
	ErrDeviceNotFound   = define("device not found", KindNotFound)
	ErrBrandNotFound    = define("brand not found", KindNotFound)
	ErrProducerNotFound = define("producer not found", KindNotFound)
	ErrItemNotFound     = define("item not found", KindNotFound)
	ErrAccountNotFound  = define("user account not found", KindNotFound)
	ErrApprovalNotFound = define("mint approval not found", KindNotFound)
)

// 内部类
var (
	ErrValueOverflow = define("arithmetic overflow", KindInternal)
)

// KindOf 返回错误所属类别，未知错误返回 KindUnknown
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// Code 返回稳定的错误标识，用于接口响应和指标标签
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	// 先判断细分哨兵，再落到所属的 ErrValueInvalid
	if errors.Is(err, ErrTimestampNotIncreasing) {
		return "timestamp_not_increasing"
	}
	for sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return codes[sentinel]
		}
	}
	return "unknown"
}

var codes = map[error]string{
	ErrSignatureInvalid:               "signature_invalid",
	ErrNonceNotIncreasing:             "nonce_not_increasing",
	ErrReportExpired:                  "report_expired",
	ErrPublicKeyInvalid:               "public_key_invalid",
	ErrValueInvalid:                   "value_invalid",
	ErrEnergyExhausted:                "energy_exhausted",
	ErrEarnedCap:                      "earned_cap",
	ErrInsufficientTraining:           "insufficient_training",
	ErrLowBattery:                     "low_battery",
	ErrTrainingReportOutOfNormalRange: "training_report_out_of_normal_range",
	ErrEnergyFull:                     "energy_full",
	ErrBalanceNotEnough:               "balance_not_enough",
	ErrAllowanceExhausted:             "allowance_exhausted",
	ErrRemainingMintNotZero:           "remaining_mint_not_zero",
	ErrIncentiveTokenNotSet:           "incentive_token_not_set",
	ErrEscrowBalanceMismatch:          "escrow_balance_mismatch",
	ErrDeviceVoided:                   "device_voided",
	ErrDeviceAlreadyBound:             "device_already_bound",
	ErrDeviceNotBound:                 "device_not_bound",
	ErrDeviceNotRegistered:            "device_not_registered",
	ErrDeviceExists:                   "device_exists",
	ErrOperationNotAllowed:            "operation_not_allowed",
	ErrRoleInvalid:                    "role_invalid",
	ErrItemFullBattery:                "item_full_battery",
	ErrItemNotFullBattery:             "item_not_full_battery",
	ErrItemUpgrading:                  "item_upgrading",
	ErrDeviceNotFound:                 "device_not_found",
	ErrBrandNotFound:                  "brand_not_found",
	ErrProducerNotFound:               "producer_not_found",
	ErrItemNotFound:                   "item_not_found",
	ErrAccountNotFound:                "account_not_found",
	ErrApprovalNotFound:               "approval_not_found",
	ErrValueOverflow:                  "value_overflow",
}
