// Package model 引擎数据模型
package model

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// 标识类型
type (
	BrandID     uint32
	ItemID      uint32
	ProducerID  uint32
	AssetID     uint32
	BlockNumber uint64
)

// Balance 资产数量，所有运算走 CheckedAdd/CheckedSub/CheckedMul
type Balance uint64

// CheckedAdd 加法，溢出返回 ErrValueOverflow
func (b Balance) CheckedAdd(o Balance) (Balance, error) {
	s := b + o
	if s < b {
		return 0, vfeerr.ErrValueOverflow
	}
	return s, nil
}

// CheckedSub 减法，不足返回 ErrBalanceNotEnough
func (b Balance) CheckedSub(o Balance) (Balance, error) {
	if o > b {
		return 0, vfeerr.ErrBalanceNotEnough
	}
	return b - o, nil
}

// CheckedMul 乘法，溢出返回 ErrValueOverflow
func (b Balance) CheckedMul(o Balance) (Balance, error) {
	if b == 0 || o == 0 {
		return 0, nil
	}
	p := b * o
	if p/o != b {
		return 0, vfeerr.ErrValueOverflow
	}
	return p, nil
}

// SaturatingSub 饱和减法
func (b Balance) SaturatingSub(o Balance) Balance {
	if o > b {
		return 0
	}
	return b - o
}

const (
	AccountIDSize = 32
	PublicKeySize = 33
	HashSize      = 32
)

// AccountID 账户标识，文本形式为 64 位十六进制
type AccountID [AccountIDSize]byte

// ParseAccountID 解析十六进制账户，允许 0x 前缀
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	if err := decodeFixedHex(s, id[:]); err != nil {
		return id, errors.Wrapf(vfeerr.ErrValueInvalid, "parse account %q: %v", s, err)
	}
	return id, nil
}

func (a AccountID) String() string { return hex.EncodeToString(a[:]) }

// Bytes 返回账户原始字节
func (a AccountID) Bytes() []byte { return a[:] }

// IsZero 是否为空账户
func (a AccountID) IsZero() bool { return a == AccountID{} }

func (a AccountID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AccountID) UnmarshalText(b []byte) error {
	id, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// PublicKey 设备压缩公钥
type PublicKey [PublicKeySize]byte

// ParsePublicKey 解析十六进制公钥
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	if err := decodeFixedHex(s, pk[:]); err != nil {
		return pk, errors.Wrapf(vfeerr.ErrPublicKeyInvalid, "parse public key %q: %v", s, err)
	}
	return pk, nil
}

// PublicKeyFromBytes 从原始字节构造公钥
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, errors.Wrapf(vfeerr.ErrPublicKeyInvalid, "length %d", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func (p PublicKey) String() string { return hex.EncodeToString(p[:]) }

func (p PublicKey) Bytes() []byte { return p[:] }

func (p PublicKey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PublicKey) UnmarshalText(b []byte) error {
	pk, err := ParsePublicKey(string(b))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// Hash 32 字节摘要
type Hash [HashSize]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(b []byte) error {
	if err := decodeFixedHex(string(b), h[:]); err != nil {
		return errors.Wrapf(vfeerr.ErrValueInvalid, "parse hash: %v", err)
	}
	return nil
}

func decodeFixedHex(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != hex.EncodedLen(len(dst)) {
		return errors.Newf("want %d hex chars, got %d", hex.EncodedLen(len(dst)), len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return errors.Wrap(err, "decode hex")
	}
	return nil
}
