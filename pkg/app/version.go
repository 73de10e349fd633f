package app

import (
	"fmt"
	"runtime"
)

// 构建时注入：
//
//	go build -ldflags "-X github.com/lk2023060901/vfemart/pkg/app.Version=v1.2.0 \
//	  -X github.com/lk2023060901/vfemart/pkg/app.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	AppName   = "vfe"
)

// Info 构建信息
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Fields 以键值对形式输出，用于结构化日志
func (i Info) Fields() []any {
	return []any{
		"name", i.AppName,
		"version", i.Version,
		"commit", i.GitCommit,
		"build_date", i.BuildDate,
		"go_version", i.GoVersion,
		"platform", i.Platform,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, build: %s, go: %s, plat: %s)",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
