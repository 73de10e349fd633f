package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/vfemart/pkg/database/redis"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// snapshotKeyPrefix Redis 中快照的键前缀
const snapshotKeyPrefix = "vfe:snapshot:"

// KV 快照存储所需的键值操作，*redis.Client 满足该接口
type KV interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

var _ KV = (*redis.Client)(nil)

// SnapshotDAO 状态快照的 Redis 存取
type SnapshotDAO struct {
	kv     KV
	logger logger.Logger
}

// NewSnapshotDAO 创建快照 DAO
func NewSnapshotDAO(kv KV, l logger.Logger) *SnapshotDAO {
	return &SnapshotDAO{
		kv:     kv,
		logger: l.Named("dao.snapshot"),
	}
}

// Key 快照名对应的 Redis 键
func (d *SnapshotDAO) Key(name string) string {
	return snapshotKeyPrefix + name
}

// Get 读取快照，不存在时返回 nil, nil
func (d *SnapshotDAO) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := d.kv.GetBytes(ctx, d.Key(name))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		d.logger.Error("failed to get snapshot",
			"name", name,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get snapshot %s: %w", name, err)
	}
	return data, nil
}

// Put 写入快照，ttl 为 0 表示不过期
func (d *SnapshotDAO) Put(ctx context.Context, name string, data []byte, ttl time.Duration) error {
	if err := d.kv.Set(ctx, d.Key(name), data, ttl); err != nil {
		d.logger.Error("failed to put snapshot",
			"name", name,
			"size", len(data),
			"error", err,
		)
		return fmt.Errorf("failed to put snapshot %s: %w", name, err)
	}
	return nil
}
