package executor

import (
	"sync"
	"time"
)

// Clock 墙钟，报告有效期校验使用
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时间
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock 手动推进的时钟
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建手动时钟
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 设置当前时间
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance 前进 d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
