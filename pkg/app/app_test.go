package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeServer struct {
	name     string
	rec      *recorder
	startErr error
}

func (s *fakeServer) Start() error {
	s.rec.add("start:" + s.name)
	return s.startErr
}

func (s *fakeServer) Stop() error {
	s.rec.add("stop:" + s.name)
	return nil
}

type fakeCloser struct {
	name string
	rec  *recorder
}

func (c *fakeCloser) Close() error {
	c.rec.add("close:" + c.name)
	return nil
}

// 测试 Run 在 Stop 后返回，Closer 逆序关闭
func TestBaseAppLifecycle(t *testing.T) {
	rec := &recorder{}
	a := NewBaseApp(WithLogger(logger.NewNoop()), WithStopTimeout(time.Second))
	InitApp(a, AppComponents{
		Servers: []Server{&fakeServer{name: "http", rec: rec}},
		Closers: []Closer{&fakeCloser{name: "redis", rec: rec}, MapCloser(&fakeCloser{name: "snapshot", rec: rec})},
	})

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		return len(rec.list()) >= 1
	}, time.Second, 10*time.Millisecond)
	a.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.Equal(t, []string{"start:http", "stop:http", "close:snapshot", "close:redis"}, rec.list())
	assert.ErrorIs(t, a.Run(), ErrAppAlreadyRunning)
}

// 测试启动失败时回收资源
func TestBaseAppStartFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("bind: address in use")
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	a.AppendServer(&fakeServer{name: "http", rec: rec, startErr: boom})
	a.AppendCloser(&fakeCloser{name: "redis", rec: rec})

	assert.ErrorIs(t, a.Run(), boom)
	assert.Contains(t, rec.list(), "close:redis")
}

func TestInfoString(t *testing.T) {
	info := GetInfo()
	assert.Contains(t, info.String(), info.GoVersion)
}

func TestOptions(t *testing.T) {
	o := DefaultOptions()
	WithStopTimeout(0)(&o)
	assert.Equal(t, defaultStopTimeout, o.StopTimeout)

	WithMetadata(map[string]string{"snapshot": "a"})(&o)
	WithMetadata(map[string]string{"pallet": "poke/vfe"})(&o)
	assert.Equal(t, map[string]string{"snapshot": "a", "pallet": "poke/vfe"}, o.Metadata)
	assert.NotEmpty(t, o.ID)
}

func TestLoggerRegistry(t *testing.T) {
	r := NewLoggerRegistry()
	r.Register("b", logger.NewNoop())
	r.Register("a", logger.NewNoop())
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Nil(t, r.Get("missing"))
	r.SyncAll()
}

func TestCloserFunc(t *testing.T) {
	closed := false
	var c Closer = CloserFunc(func() { closed = true })
	require.NoError(t, c.Close())
	assert.True(t, closed)
}

func TestWatchLogLevelWithoutConfig(t *testing.T) {
	l, err := logger.New(logger.DefaultConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, WatchLogLevel(l), ErrConfigNotLoaded)
}
