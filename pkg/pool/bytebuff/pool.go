// Package bytebuff 基于 valyala/bytebufferpool 的缓冲池
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Pool 带统计的缓冲池
type Pool struct {
	pool bytebufferpool.Pool
	gets atomic.Uint64
	puts atomic.Uint64
}

var defaultPool = &Pool{}

// Get 从池中获取一个 ByteBuffer
func (p *Pool) Get() *bytebufferpool.ByteBuffer {
	p.gets.Add(1)
	return p.pool.Get()
}

// Put 将 ByteBuffer 归还到池中，归还后不得再使用
func (p *Pool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	p.pool.Put(buf)
}

// Stats 返回获取与归还次数
func (p *Pool) Stats() (gets, puts uint64) {
	return p.gets.Load(), p.puts.Load()
}

// Get 使用默认池
func Get() *bytebufferpool.ByteBuffer {
	return defaultPool.Get()
}

// Put 归还到默认池
func Put(buf *bytebufferpool.ByteBuffer) {
	defaultPool.Put(buf)
}
