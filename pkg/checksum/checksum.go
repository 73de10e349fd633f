// pkg/checksum/checksum.go
package checksum

import (
	"fmt"
	"hash/crc32"
	"sync"
)

// Hasher 校验和计算器接口
type Hasher interface {
	Sum(data []byte) uint32
	Verify(data []byte, expected uint32) bool
	Name() string
}

// Type 校验算法类型
type Type string

const (
	// TypeCRC32C Castagnoli 多项式，硬件加速
	TypeCRC32C Type = "crc32c"
	// TypeXXHash XXHash64 取低 32 位
	TypeXXHash Type = "xxhash"
)

var (
	mu        sync.RWMutex
	factories = map[Type]func() Hasher{
		TypeCRC32C: func() Hasher { return crc32cHasher{table: crc32.MakeTable(crc32.Castagnoli)} },
		TypeXXHash: func() Hasher { return xxhashHasher{} },
	}
)

// Register 注册校验器工厂
func Register(t Type, factory func() Hasher) {
	mu.Lock()
	defer mu.Unlock()
	factories[t] = factory
}

// New 创建校验器
func New(t Type) (Hasher, error) {
	mu.RLock()
	factory, ok := factories[t]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported checksum type: %s", t)
	}
	return factory(), nil
}

// Default 返回默认校验器 (xxhash)
func Default() Hasher {
	h, _ := New(TypeXXHash)
	return h
}

type crc32cHasher struct {
	table *crc32.Table
}

func (h crc32cHasher) Sum(data []byte) uint32 {
	return crc32.Checksum(data, h.table)
}

func (h crc32cHasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

func (h crc32cHasher) Name() string {
	return string(TypeCRC32C)
}
