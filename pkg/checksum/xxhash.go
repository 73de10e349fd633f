// pkg/checksum/xxhash.go
package checksum

import (
	"github.com/cespare/xxhash/v2"
)

// xxhashHasher XXHash 校验实现
type xxhashHasher struct{}

// Sum 计算 XXHash 校验和（取低 32 位）
func (xxhashHasher) Sum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

func (h xxhashHasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

func (xxhashHasher) Name() string {
	return string(TypeXXHash)
}

// Sum64 完整 64 位摘要
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
