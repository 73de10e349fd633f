package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// EnvPrefix 环境变量前缀，VFE_ENGINE_COST_UNIT 对应 engine.cost_unit
const EnvPrefix = "VFE"

const (
	flagConfig  = "config"
	flagLogPath = "log.path"
	keyLogPath  = "log.output_path"
)

var (
	configPath string
	logPath    string
	manager    config.Manager
)

// LoadConfig 加载配置到 target
// 优先级：命令行 > 环境变量 > 配置文件 > 默认值
// 配置文件路径：--config/-c > VFE_CONFIG > 可执行文件目录下的 config.yaml
func LoadConfig(target any, opts ...config.Option) error {
	execDir, err := GetExecDir()
	if err != nil {
		return errors.Wrap(err, "resolve executable directory")
	}
	registerFlags(execDir)

	path := resolveConfigPath()
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(config.ErrConfigFileNotFound, "%s", path)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log.enable_file", true)
	v.SetDefault(keyLogPath, filepath.Join(execDir, "logs", "vfe.log"))
	if pflag.CommandLine.Changed(flagLogPath) {
		v.Set(keyLogPath, logPath)
	}

	mgr := config.NewManager(append(opts, config.WithViper(v))...)
	if err := mgr.LoadFile(path); err != nil {
		return err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}

	configPath = path
	logPath = v.GetString(keyLogPath)
	manager = mgr

	if dir := filepath.Dir(logPath); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

func registerFlags(execDir string) {
	if pflag.Lookup(flagConfig) == nil {
		pflag.StringVarP(&configPath, flagConfig, "c", filepath.Join(execDir, "config.yaml"), "path to config file")
	}
	if pflag.Lookup(flagLogPath) == nil {
		pflag.StringVar(&logPath, flagLogPath, "", "override log.output_path")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}
}

func resolveConfigPath() string {
	if !pflag.CommandLine.Changed(flagConfig) {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			return env
		}
	}
	return configPath
}

// GetExecDir 可执行文件所在目录，解析符号链接
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	return filepath.Dir(execPath), nil
}

// Manager LoadConfig 使用的配置管理器，未加载时为 nil
func Manager() config.Manager {
	return manager
}

func GetConfigPath() string {
	return configPath
}

func GetLogPath() string {
	return logPath
}
