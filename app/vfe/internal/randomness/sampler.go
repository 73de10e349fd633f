package randomness

import (
	"encoding/binary"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
)

// Sampler 在 [0, total) 上做拒绝采样
//
// 每次抽取都会推进状态中的计数器，计数器作为 subject 传给随机源，
// 计数器随调用一起提交或回滚。
type Sampler struct {
	src      Source
	maxRetry uint32
}

// NewSampler 创建采样器，maxRetry 为单次采样最多抽取的次数，含首次抽取
func NewSampler(src Source, maxRetry uint32) *Sampler {
	return &Sampler{src: src, maxRetry: maxRetry}
}

// Hash 抽取一个 32 字节种子
func (s *Sampler) Hash(st *state.Store) model.Hash {
	counter := st.RandomCounter.Get()
	st.RandomCounter.Set(counter + 1)
	var subject [8]byte
	binary.LittleEndian.PutUint64(subject[:], counter)
	return s.src.Random(subject[:])
}

// Uint32 抽取一个 u32
func (s *Sampler) Uint32(st *state.Store) uint32 {
	h := s.Hash(st)
	return binary.LittleEndian.Uint32(h[:4])
}

// Intn 无偏地抽取 [0, total)，total 为 0 时返回 0 且不消耗随机数
func (s *Sampler) Intn(st *state.Store, total uint32) uint32 {
	if total == 0 {
		return 0
	}
	const space = uint64(1) << 32
	limit := space - space%uint64(total)
	r := s.Uint32(st)
	for draws := uint32(1); uint64(r) >= limit && draws < s.maxRetry; draws++ {
		r = s.Uint32(st)
	}
	return r % total
}
