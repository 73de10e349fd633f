package idgen

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/sonyflake"
)

// Config 生成器配置
type Config struct {
	MachineID uint16    `mapstructure:"machine_id"`
	StartTime time.Time `mapstructure:"start_time"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type sonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflake 创建基于 Sonyflake 的ID生成器
func NewSonyflake(cfg *Config) (Generator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	start := cfg.StartTime
	if start.IsZero() {
		start = DefaultConfig().StartTime
	}
	machineID := cfg.MachineID
	settings := sonyflake.Settings{
		StartTime: start,
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	}

	sf := sonyflake.NewSonyflake(settings)
	if sf == nil {
		return nil, errors.New("failed to create sonyflake generator")
	}

	return &sonyflakeGenerator{sf: sf}, nil
}

func (g *sonyflakeGenerator) NextID() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return 0, errors.Wrap(err, "failed to generate id")
	}
	return int64(id), nil
}
