package dao

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/pkg/database/redis"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

type memKV struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func (m *memKV) GetBytes(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.ErrNil
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value.([]byte)
	m.ttl[key] = ttl
	return nil
}

func TestSnapshotDAO(t *testing.T) {
	ctx := context.Background()
	kv := &memKV{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
	d := NewSnapshotDAO(kv, logger.NewNoop())

	assert.Equal(t, "vfe:snapshot:main", d.Key("main"))

	data, err := d.Get(ctx, "main")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, d.Put(ctx, "main", []byte("state"), time.Hour))
	assert.Equal(t, time.Hour, kv.ttl["vfe:snapshot:main"])

	data, err = d.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), data)

	kv.err = errors.New("connection reset")
	_, err = d.Get(ctx, "main")
	assert.ErrorContains(t, err, "connection reset")
	assert.ErrorContains(t, d.Put(ctx, "main", nil, 0), "connection reset")
}
