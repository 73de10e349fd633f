// Package lru 带过期时间的内存 LRU
package lru

import (
	"container/list"
	"sync"
	"time"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// Config LRU 配置
type Config struct {
	// MaxSize 最大条目数
	MaxSize int `mapstructure:"max_size"`
	// TTL 条目自最后一次创建起的存活时间
	TTL time.Duration `mapstructure:"ttl"`
	// CleanupInterval 后台清理间隔，为负时不启动清理协程
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxSize:         10000,
		TTL:             10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// LRU 并发安全，Get 与 GetOrCreate 命中时刷新最近使用顺序，不刷新过期时间
type LRU[K comparable, V any] struct {
	config *Config
	order  *list.List
	items  map[K]*list.Element
	mu     sync.Mutex

	now     func() time.Time
	onEvict func(key K, value V)

	stopCh    chan struct{}
	stopOnce  sync.Once
	cleanupWG sync.WaitGroup
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 条目被淘汰、过期或删除时回调，回调在锁内执行
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// WithClock 替换时间源
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.now = now
	}
}

// New 创建 LRU，cfg 中的零值字段取默认值
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) *LRU[K, V] {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		newCfg = DefaultConfig()
	}

	c := &LRU[K, V]{
		config: newCfg,
		order:  list.New(),
		items:  make(map[K]*list.Element),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if newCfg.CleanupInterval > 0 {
		c.cleanupWG.Add(1)
		go c.cleanupLoop()
	}
	return c
}

func (c *LRU[K, V]) cleanupLoop() {
	defer c.cleanupWG.Done()
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stopCh:
			return
		}
	}
}

// RemoveExpired 清除全部过期条目，返回清除数量
func (c *LRU[K, V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.order.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Get 获取未过期的值
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !c.now().After(ent.expiresAt) {
			c.order.MoveToFront(elem)
			return ent.value, true
		}
		c.removeElement(elem)
	}
	var zero V
	return zero, false
}

// GetOrCreate 原子地获取或创建，已过期的条目会重新创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !now.After(ent.expiresAt) {
			c.order.MoveToFront(elem)
			return ent.value
		}
		c.removeElement(elem)
	}

	value := create()
	c.items[key] = c.order.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: now.Add(c.config.TTL),
	})
	for c.order.Len() > c.config.MaxSize {
		c.removeElement(c.order.Back())
	}
	return value
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len 当前条目数，包含尚未清理的过期条目
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close 停止后台清理，可重复调用
func (c *LRU[K, V]) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.cleanupWG.Wait()
	return nil
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
