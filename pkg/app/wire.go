package app

import (
	"github.com/google/wire"
)

// ProviderSet BaseApp 的 Wire 提供者，需要调用方提供 []Option
var ProviderSet = wire.NewSet(
	NewBaseApp,
)

// AppComponents cmd 中由 Wire 组装的服务与资源
// Servers 按顺序启动，Closers 在所有 Server 停止后逆序关闭
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// InitApp 将组件挂到 BaseApp 上
func InitApp(app *BaseApp, comps AppComponents) Application {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 适配 Close() 没有返回值的资源，例如 pgx 连接池
type CloserFunc func()

func (f CloserFunc) Close() error {
	f()
	return nil
}

// MapCloser 把任意带 Close() error 的对象转为 Closer
func MapCloser(c interface{ Close() error }) Closer {
	return closerAdapter{c}
}

type closerAdapter struct {
	c interface{ Close() error }
}

func (a closerAdapter) Close() error { return a.c.Close() }
