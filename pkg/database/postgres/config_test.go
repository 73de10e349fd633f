package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"empty host", func(c *Config) { c.Host = "" }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"min over max", func(c *Config) { c.Pool.MinConns = 20 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeAndConnString(t *testing.T) {
	cfg, err := MergeConfig(DefaultConfig(), &Config{Host: "db", DBName: "audit", ConnectTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t,
		"host=db port=5432 user=postgres password= dbname=audit sslmode=disable connect_timeout=3",
		cfg.ConnString())
}
