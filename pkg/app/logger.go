package app

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/pkg/logger"
)

// ErrConfigNotLoaded 调用 WatchLogLevel 之前必须先 LoadConfig
var ErrConfigNotLoaded = errors.New("config not loaded")

// LoggerRegistry 配置文件 loggers 段中的具名日志对象
type LoggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]logger.Logger
}

func NewLoggerRegistry() *LoggerRegistry {
	return &LoggerRegistry{
		loggers: make(map[string]logger.Logger),
	}
}

// Register 同名时覆盖
func (r *LoggerRegistry) Register(name string, l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers[name] = l
}

// Get 不存在时返回 nil
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

// Names 已注册的名称，按字典序
func (r *LoggerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loggers {
		_ = l.Sync()
	}
}

// InitLoggers 按名称顺序创建，遇到第一个错误即返回
func (r *LoggerRegistry) InitLoggers(configs map[string]*logger.Config) error {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l, err := logger.New(configs[name])
		if err != nil {
			return errors.Wrapf(err, "logger %s", name)
		}
		r.Register(name, l.Named(name))
	}
	return nil
}

// WatchLogLevel 配置文件变更时按 log.level 调整主日志等级
func WatchLogLevel(l *logger.BaseLogger) error {
	mgr := Manager()
	if mgr == nil {
		return ErrConfigNotLoaded
	}
	return mgr.Watch(func() {
		level := logger.Level(mgr.GetString("log.level"))
		if level == "" || level == l.GetLevel() {
			return
		}
		l.Info("log level changed", "from", l.GetLevel(), "to", level)
		l.SetLevel(level)
	})
}
