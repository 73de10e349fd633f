package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineSection struct {
	CostUnit uint64        `mapstructure:"cost_unit" validate:"gte=1"`
	Window   time.Duration `mapstructure:"window"`
	Mode     string        `mapstructure:"mode" validate:"oneof=dev prod"`
	Roots    []string      `mapstructure:"roots"`
}

type fileConfig struct {
	Engine engineSection `mapstructure:"engine"`
}

// 测试合并：零值不覆盖默认值
func TestMergeConfig(t *testing.T) {
	dst := &engineSection{CostUnit: 100000, Window: 24 * time.Hour, Mode: "prod", Roots: []string{"a"}}
	src := &engineSection{CostUnit: 10, Roots: []string{"b", "c"}}

	merged, err := MergeConfig(dst, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), merged.CostUnit)
	assert.Equal(t, 24*time.Hour, merged.Window)
	assert.Equal(t, "prod", merged.Mode)
	assert.Equal(t, []string{"b", "c"}, merged.Roots)

	_, err = MergeConfig[engineSection](nil, nil)
	assert.Error(t, err)

	only, err := MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, only)
}

// 测试配置验证
func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		cfg     any
		wantErr bool
	}{
		{name: "valid", cfg: engineSection{CostUnit: 1, Mode: "dev"}},
		{name: "cost unit zero", cfg: engineSection{CostUnit: 0, Mode: "dev"}, wantErr: true},
		{name: "bad mode", cfg: engineSection{CostUnit: 1, Mode: "test"}, wantErr: true},
		{name: "nil", cfg: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.NoError(t, v.ValidateField(5, "gte=1,lte=10"))
	assert.ErrorIs(t, v.ValidateField(50, "lte=10"), ErrValidationFailed)
}

// 测试从文件与环境变量加载
func TestManagerLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("engine:\n  cost_unit: 500\n  window: 2h\n  mode: dev\n  roots: [\"x\"]\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("VFETEST_ENGINE_MODE", "prod")

	m := NewManager(WithDefaults(map[string]any{"engine.cost_unit": 1}))
	m.BindEnv("VFETEST")
	require.NoError(t, m.LoadFile(path))

	var cfg fileConfig
	require.NoError(t, m.Unmarshal(&cfg))
	assert.Equal(t, uint64(500), cfg.Engine.CostUnit)
	assert.Equal(t, 2*time.Hour, cfg.Engine.Window)
	assert.Equal(t, "prod", cfg.Engine.Mode)
	assert.Equal(t, []string{"x"}, cfg.Engine.Roots)
	assert.True(t, m.IsSet("engine.window"))
	assert.Equal(t, 500, m.GetInt("engine.cost_unit"))

	assert.ErrorIs(t, m.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")), ErrConfigFileNotFound)
}
