// Package randomness 随机数来源与无偏采样
package randomness

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
)

// Source 随机源，每次调用按 subject 返回一个新的种子
type Source interface {
	Random(subject []byte) model.Hash
}

// SourceFunc 函数形式的随机源
type SourceFunc func(subject []byte) model.Hash

func (f SourceFunc) Random(subject []byte) model.Hash { return f(subject) }

type cryptoSource struct{}

// NewCryptoSource 基于操作系统随机数的随机源
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) Random(subject []byte) model.Hash {
	var h model.Hash
	if _, err := rand.Read(h[:]); err != nil {
		// crypto/rand 在受支持的平台上不会失败
		panic(err)
	}
	return h
}

type seededSource struct {
	seed []byte
}

// NewSeededSource 确定性随机源，blake2b(seed ‖ subject)
//
// 知道种子即可预测全部结果，只适用于可复现的回放环境。
func NewSeededSource(seed []byte) Source {
	return &seededSource{seed: append([]byte(nil), seed...)}
}

func (s *seededSource) Random(subject []byte) model.Hash {
	h, _ := blake2b.New256(nil)
	h.Write(s.seed)
	h.Write(subject)
	var out model.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// SequenceSource 按顺序返回预设的 u32 值，用尽后重复最后一个
type SequenceSource struct {
	mu     sync.Mutex
	values []uint32
	pos    int
}

// NewSequenceSource 创建预设序列随机源
func NewSequenceSource(values ...uint32) *SequenceSource {
	return &SequenceSource{values: values}
}

func (s *SequenceSource) Random([]byte) model.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	var h model.Hash
	if len(s.values) == 0 {
		return h
	}
	i := s.pos
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	s.pos++
	binary.LittleEndian.PutUint32(h[:4], s.values[i])
	return h
}

// Push 追加预设值
func (s *SequenceSource) Push(values ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, values...)
}

// Calls 已发生的调用次数
func (s *SequenceSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
