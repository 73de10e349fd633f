// Package idgen 唯一 ID 生成
package idgen

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// ErrNotInitialized 全局生成器未初始化
var ErrNotInitialized = errors.New("id generator not initialized")

// Generator ID生成器接口
type Generator interface {
	// NextID 生成下一个唯一ID
	NextID() (int64, error)
}

var (
	global Generator
	mu     sync.RWMutex
)

// Init 初始化全局ID生成器
func Init(g Generator) {
	mu.Lock()
	defer mu.Unlock()
	global = g
}

// NextID 使用全局生成器生成ID
func NextID() (int64, error) {
	mu.RLock()
	g := global
	mu.RUnlock()

	if g == nil {
		return 0, ErrNotInitialized
	}
	return g.NextID()
}

type sequential struct {
	next atomic.Int64
}

// NewSequential 从 start 开始递增的生成器，用于回放和测试
func NewSequential(start int64) Generator {
	g := &sequential{}
	g.next.Store(start)
	return g
}

func (g *sequential) NextID() (int64, error) {
	return g.next.Add(1) - 1, nil
}
