// Package repository 引擎状态的持久化
package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/checksum"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/serializer"
)

// envelopeVersion 快照封装格式版本
const envelopeVersion uint16 = 1

var (
	// ErrChecksumMismatch 快照内容与校验和不符
	ErrChecksumMismatch = errors.New("repository: snapshot checksum mismatch")
	// ErrUnsupportedVersion 快照封装版本未知
	ErrUnsupportedVersion = errors.New("repository: unsupported snapshot version")
)

// Snapshotter 可导出与恢复已提交状态，*executor.Executor 满足该接口
type Snapshotter interface {
	Snapshot() (*state.Snapshot, error)
	Restore(snap *state.Snapshot)
}

// envelope 存储格式：msgpack 编码的状态加 xxhash 校验
type envelope struct {
	Version  uint16 `codec:"ver"`
	Height   uint64 `codec:"height"`
	SavedAt  int64  `codec:"saved_at"`
	Checksum uint64 `codec:"sum"`
	State    []byte `codec:"state"`
}

// StateRepository 引擎状态仓储接口
type StateRepository interface {
	// Save 导出当前已提交状态并写入存储，返回写入字节数
	Save(ctx context.Context) (int, error)
	// Load 读取快照并恢复，没有快照时返回 false
	Load(ctx context.Context) (bool, error)
}

type stateRepositoryImpl struct {
	name        string
	ttl         time.Duration
	snapshotDAO *dao.SnapshotDAO
	engine      Snapshotter
	metrics     *metrics.EngineMetrics
	logger      logger.Logger
}

// NewStateRepository 创建状态仓储，name 区分同一 Redis 上的多个引擎
func NewStateRepository(
	name string,
	ttl time.Duration,
	snapshotDAO *dao.SnapshotDAO,
	engine Snapshotter,
	m *metrics.EngineMetrics,
	l logger.Logger,
) StateRepository {
	return &stateRepositoryImpl{
		name:        name,
		ttl:         ttl,
		snapshotDAO: snapshotDAO,
		engine:      engine,
		metrics:     m,
		logger:      l.Named("repository.state"),
	}
}

func (r *stateRepositoryImpl) Save(ctx context.Context) (int, error) {
	data, height, err := r.encode()
	if err == nil {
		err = r.snapshotDAO.Put(ctx, r.name, data, r.ttl)
	}
	r.metrics.RecordSnapshot(len(data), err)
	if err != nil {
		return 0, err
	}

	r.logger.Info("state snapshot saved",
		"name", r.name,
		"height", height,
		"size", len(data),
	)
	return len(data), nil
}

func (r *stateRepositoryImpl) encode() ([]byte, uint64, error) {
	snap, err := r.engine.Snapshot()
	if err != nil {
		return nil, 0, errors.Wrap(err, "export state")
	}
	body, err := serializer.Encode(snap)
	if err != nil {
		return nil, 0, errors.Wrap(err, "encode state")
	}
	env := envelope{
		Version:  envelopeVersion,
		Height:   uint64(snap.Clock.Height),
		SavedAt:  time.Now().UnixMilli(),
		Checksum: checksum.Sum64(body),
		State:    body,
	}
	data, err := serializer.Encode(&env)
	if err != nil {
		return nil, 0, errors.Wrap(err, "encode envelope")
	}
	return data, env.Height, nil
}

func (r *stateRepositoryImpl) Load(ctx context.Context) (bool, error) {
	data, err := r.snapshotDAO.Get(ctx, r.name)
	if err != nil {
		return false, err
	}
	if data == nil {
		r.logger.Info("no state snapshot found", "name", r.name)
		return false, nil
	}

	snap, env, err := decode(data)
	if err != nil {
		r.logger.Error("failed to decode state snapshot", "name", r.name, "error", err)
		return false, err
	}
	r.engine.Restore(snap)

	r.logger.Info("state snapshot restored",
		"name", r.name,
		"height", env.Height,
		"saved_at", time.UnixMilli(env.SavedAt).UTC().Format(time.RFC3339),
	)
	return true, nil
}

func decode(data []byte) (*state.Snapshot, *envelope, error) {
	var env envelope
	if err := serializer.Decode(data, &env); err != nil {
		return nil, nil, errors.Wrap(err, "decode envelope")
	}
	if env.Version != envelopeVersion {
		return nil, nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", env.Version)
	}
	if checksum.Sum64(env.State) != env.Checksum {
		return nil, nil, ErrChecksumMismatch
	}
	var snap state.Snapshot
	if err := serializer.Decode(env.State, &snap); err != nil {
		return nil, nil, errors.Wrap(err, "decode state")
	}
	return &snap, &env, nil
}
