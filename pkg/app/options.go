package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/vfemart/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

// Options 应用选项
type Options struct {
	// ID 实例 ID，默认随机 uuid，写入启动日志便于区分多个引擎实例
	ID          string
	Name        string
	Version     string
	Metadata    map[string]string
	StopTimeout time.Duration

	// Logger 主日志，未设置时按 LogConfig 创建
	Logger       logger.Logger
	LogConfig    *logger.Config
	NamedLoggers map[string]*logger.Config
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		ID:          uuid.New().String(),
		Name:        AppName,
		Version:     Version,
		Metadata:    make(map[string]string),
		StopTimeout: defaultStopTimeout,
	}
}

func WithLogConfig(cfg *logger.Config) Option {
	return func(o *Options) { o.LogConfig = cfg }
}

func WithNamedLoggers(loggers map[string]*logger.Config) Option {
	return func(o *Options) { o.NamedLoggers = loggers }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

func WithVersion(v string) Option {
	return func(o *Options) { o.Version = v }
}

// WithMetadata 附加到启动日志的键值
func WithMetadata(md map[string]string) Option {
	return func(o *Options) {
		for k, v := range md {
			o.Metadata[k] = v
		}
	}
}

// WithStopTimeout 停止所有 Server 的最长等待时间，非正数时使用默认值
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) {
		if t > 0 {
			o.StopTimeout = t
		}
	}
}
