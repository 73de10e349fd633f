package model

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// SportType 运动类型
type SportType uint8

const (
	SportJumpRope SportType = iota
	SportRun
	SportBicycle
)

var sportNames = map[SportType]string{
	SportJumpRope: "jump_rope",
	SportRun:      "run",
	SportBicycle:  "bicycle",
}

func (s SportType) String() string {
	if name, ok := sportNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSportType 解析运动类型名称
func ParseSportType(name string) (SportType, error) {
	for s, n := range sportNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, errors.Wrapf(vfeerr.ErrValueInvalid, "unknown sport type %q", name)
}

func (s SportType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SportType) UnmarshalText(b []byte) error {
	v, err := ParseSportType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TrainingUnitDuration 消耗一点能量所需的有效训练秒数
func (s SportType) TrainingUnitDuration() uint16 {
	switch s {
	case SportJumpRope:
		return 30
	default:
		return 60
	}
}

// FrequencyStandard 标准频率，用于技巧修正项
func (s SportType) FrequencyStandard() uint16 {
	switch s {
	case SportJumpRope:
		return 120
	case SportRun:
		return 10
	default:
		return 30
	}
}

// FrequencyFactor 频率是否在正常区间，返回 0 或 1
//
// 跳绳要求平均速度在 [80, 400]，其余运动不做限制。
func (s SportType) FrequencyFactor(avgSpeed uint16) uint64 {
	if s == SportJumpRope && (avgSpeed < 80 || avgSpeed > 400) {
		return 0
	}
	return 1
}

// Rarity 稀有度
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityElite
	RarityRare
	RarityEpic
)

var rarityNames = map[Rarity]string{
	RarityCommon: "common",
	RarityElite:  "elite",
	RarityRare:   "rare",
	RarityEpic:   "epic",
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRarity 解析稀有度名称
func ParseRarity(name string) (Rarity, error) {
	for r, n := range rarityNames {
		if strings.EqualFold(n, name) {
			return r, nil
		}
	}
	return 0, errors.Wrapf(vfeerr.ErrValueInvalid, "unknown rarity %q", name)
}

func (r Rarity) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rarity) UnmarshalText(b []byte) error {
	v, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// AbilityRange 初始属性取值区间 [min, max)
func (r Rarity) AbilityRange() (min, max uint16) {
	switch r {
	case RarityElite:
		return 6, 12
	case RarityRare:
		return 10, 18
	case RarityEpic:
		return 20, 30
	default:
		return 2, 8
	}
}

// GrowthPoints 每次升级获得的可分配点数
func (r Rarity) GrowthPoints() uint16 {
	return 4
}

// Ability 四项属性
type Ability struct {
	Efficiency uint16 `json:"efficiency"`
	Skill      uint16 `json:"skill"`
	Luck       uint16 `json:"luck"`
	Durable    uint16 `json:"durable"`
}

// Sum 属性总和
func (a Ability) Sum() uint32 {
	return uint32(a.Efficiency) + uint32(a.Skill) + uint32(a.Luck) + uint32(a.Durable)
}

// Add 逐项相加，任一项溢出返回 ErrValueOverflow
func (a Ability) Add(d Ability) (Ability, error) {
	out := a
	for _, p := range []struct {
		dst *uint16
		v   uint16
	}{
		{&out.Efficiency, d.Efficiency},
		{&out.Skill, d.Skill},
		{&out.Luck, d.Luck},
		{&out.Durable, d.Durable},
	} {
		s := uint32(*p.dst) + uint32(p.v)
		if s > 0xFFFF {
			return a, vfeerr.ErrValueOverflow
		}
		*p.dst = uint16(s)
	}
	return out, nil
}

// Covers 是否逐项不小于 o
func (a Ability) Covers(o Ability) bool {
	return a.Efficiency >= o.Efficiency && a.Skill >= o.Skill && a.Luck >= o.Luck && a.Durable >= o.Durable
}
