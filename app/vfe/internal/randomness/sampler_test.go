package randomness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
)

func TestIntn(t *testing.T) {
	// 2^32 mod 3 = 1，拒绝阈值为 2^32-1
	const reject = ^uint32(0)

	tests := []struct {
		name     string
		values   []uint32
		total    uint32
		maxRetry uint32
		want     uint32
		calls    int
	}{
		{"zero total", []uint32{5}, 0, 10, 0, 0},
		{"plain", []uint32{7}, 5, 10, 2, 1},
		{"retry once", []uint32{reject, 4}, 3, 10, 1, 2},
		{"retry bound", []uint32{reject, reject, reject}, 3, 2, reject % 3, 2},
		{"at most max draws", []uint32{reject}, 3, 10, reject % 3, 10},
		{"single draw when max is one", []uint32{reject, 4}, 3, 1, reject % 3, 1},
		{"power of two never rejects", []uint32{reject}, 4, 10, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSequenceSource(tt.values...)
			st := state.NewStore()
			s := NewSampler(src, tt.maxRetry)
			assert.Equal(t, tt.want, s.Intn(st, tt.total))
			assert.Equal(t, tt.calls, src.Calls())
			assert.Equal(t, uint64(tt.calls), st.RandomCounter.Get())
		})
	}
}

func TestSeededSourceDeterministic(t *testing.T) {
	a := NewSampler(NewSeededSource([]byte("seed")), 10)
	b := NewSampler(NewSeededSource([]byte("seed")), 10)
	sa, sb := state.NewStore(), state.NewStore()

	first := a.Uint32(sa)
	assert.Equal(t, first, b.Uint32(sb))
	assert.NotEqual(t, a.Hash(sa), a.Hash(sa), "counter must change the subject")
}

func TestCounterRollsBack(t *testing.T) {
	st := state.NewStore()
	s := NewSampler(NewCryptoSource(), 10)
	s.Uint32(st)
	st.Rollback()
	assert.Equal(t, uint64(0), st.RandomCounter.Get())
	s.Uint32(st)
	st.Commit()
	assert.Equal(t, uint64(1), st.RandomCounter.Get())
}
