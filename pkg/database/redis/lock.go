package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// 默认锁过期时间
	defaultLockTTL = 10 * time.Second
)

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// Lock 单节点分布式锁
type Lock struct {
	client *Client
	key    string        // 锁的键
	value  string        // 锁的值（用于验证锁持有者）
	ttl    time.Duration // 锁的过期时间
}

// NewLock 创建分布式锁
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{
		client: client,
		key:    key,
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Key 锁的键
func (l *Lock) Key() string { return l.key }

// TTL 锁的过期时间
func (l *Lock) TTL() time.Duration { return l.ttl }

// Lock 获取锁，已被占用返回 ErrLockFailed
func (l *Lock) Lock(ctx context.Context) error {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return ErrLockFailed
	}
	return nil
}

// Unlock 释放锁，只有持有者才能释放
func (l *Lock) Unlock(ctx context.Context) error {
	return l.eval(ctx, unlockScript, "unlock", l.value)
}

// Refresh 延长锁的持有时间
func (l *Lock) Refresh(ctx context.Context) error {
	return l.eval(ctx, refreshScript, "refresh", l.value, l.ttl.Milliseconds())
}

func (l *Lock) eval(ctx context.Context, script, op string, args ...interface{}) error {
	n, err := l.client.rdb.Eval(ctx, script, []string{l.key}, args...).Int64()
	if err != nil {
		return fmt.Errorf("failed to %s lock: %w", op, err)
	}
	// 0 表示锁不存在或不是当前持有者
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
