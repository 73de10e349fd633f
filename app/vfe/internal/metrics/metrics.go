// Package metrics 引擎 Prometheus 指标
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/config"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
	// Path 暴露指标的 HTTP 路径
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "vfe",
		Path:      "/metrics",
	}
}

// EngineMetrics 引擎指标，方法对 nil 接收者安全
type EngineMetrics struct {
	config *Config

	// 调用指标
	CallTotal    *prometheus.CounterVec   // 调用总数（按操作、错误标识）
	CallDuration *prometheus.HistogramVec // 调用耗时

	// 经济指标
	RewardMinted prometheus.Counter // 训练奖励累计铸造量
	Burned       *prometheus.CounterVec

	// 纪元
	Height prometheus.Gauge

	// 事件与持久化
	EventTotal    *prometheus.CounterVec // 事件分发（按 sink、结果）
	SnapshotTotal *prometheus.CounterVec // 快照次数（按结果）
	SnapshotBytes prometheus.Gauge       // 最近一次快照大小
}

// New 创建引擎指标
func New(cfg *Config) (*EngineMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}
	ns := newCfg.Namespace

	return &EngineMetrics{
		config: newCfg,
		CallTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "calls_total",
				Help:      "引擎调用总数",
			},
			[]string{"op", "result"}, // result: ok 或错误标识
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "call_duration_seconds",
				Help:      "引擎调用耗时（秒）",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"op"},
		),
		RewardMinted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "reward_minted_total",
				Help:      "训练奖励累计铸造量",
			},
		),
		Burned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "burned_total",
				Help:      "充电与升级累计销毁量",
			},
			[]string{"reason"}, // reason: restore_power/level_up
		),
		Height: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "block_height",
				Help:      "当前区块高度",
			},
		),
		EventTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "events_total",
				Help:      "事件分发总数",
			},
			[]string{"sink", "result"},
		),
		SnapshotTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "snapshots_total",
				Help:      "状态快照次数",
			},
			[]string{"result"},
		),
		SnapshotBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "snapshot_bytes",
				Help:      "最近一次快照字节数",
			},
		),
	}, nil
}

// Path 指标路径
func (m *EngineMetrics) Path() string {
	return m.config.Path
}

// Register 注册指标到 Prometheus Registry
func (m *EngineMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.CallTotal,
		m.CallDuration,
		m.RewardMinted,
		m.Burned,
		m.Height,
		m.EventTotal,
		m.SnapshotTotal,
		m.SnapshotBytes,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordCall 记录一次调用
func (m *EngineMetrics) RecordCall(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.CallTotal.WithLabelValues(op, vfeerr.Code(err)).Inc()
	m.CallDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordReward 记录奖励铸造
func (m *EngineMetrics) RecordReward(amount uint64) {
	if m == nil {
		return
	}
	m.RewardMinted.Add(float64(amount))
}

// RecordBurn 记录销毁
func (m *EngineMetrics) RecordBurn(reason string, amount uint64) {
	if m == nil {
		return
	}
	m.Burned.WithLabelValues(reason).Add(float64(amount))
}

// SetHeight 记录区块高度
func (m *EngineMetrics) SetHeight(h uint64) {
	if m == nil {
		return
	}
	m.Height.Set(float64(h))
}

// RecordEvents 记录事件分发
func (m *EngineMetrics) RecordEvents(sink string, n int, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.EventTotal.WithLabelValues(sink, result).Add(float64(n))
}

// RecordSnapshot 记录快照
func (m *EngineMetrics) RecordSnapshot(size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotTotal.WithLabelValues("failed").Inc()
		return
	}
	m.SnapshotTotal.WithLabelValues("success").Inc()
	m.SnapshotBytes.Set(float64(size))
}
