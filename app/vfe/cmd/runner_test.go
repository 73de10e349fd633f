package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/event"
	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/randomness"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/scheduler"
	"github.com/lk2023060901/vfemart/pkg/security"
	"github.com/lk2023060901/vfemart/pkg/web/middleware"
)

type fakeRepo struct {
	loads   int
	saves   int
	loadErr error
}

func (r *fakeRepo) Save(context.Context) (int, error) {
	r.saves++
	return 1, nil
}

func (r *fakeRepo) Load(context.Context) (bool, error) {
	r.loads++
	return false, r.loadErr
}

func newRunner(t *testing.T, repo *fakeRepo) *engineRunner {
	t.Helper()
	token := uint32(7)
	cfg := &service.Config{IncentiveToken: &token, BlockInterval: time.Hour}
	exec := executor.New(state.NewStore(), logger.NewNoop(),
		executor.WithClock(executor.NewManualClock(time.Unix(1700000000, 0))),
	)
	auth, err := service.NewStaticAuthority(cfg)
	require.NoError(t, err)
	eng, err := service.NewEngine(cfg, exec, auth, randomness.NewSequenceSource(), logger.NewNoop(), nil)
	require.NoError(t, err)
	sched, err := scheduler.New(scheduler.DefaultConfig(), scheduler.WithLogger(logger.NewNoop()))
	require.NoError(t, err)

	r := &engineRunner{
		snapshot: SnapshotConfig{Name: "test", Interval: "@every 1h"},
		eng:      eng,
		sched:    sched,
		logger:   logger.NewNoop(),
	}
	if repo != nil {
		r.repo = repo
	}
	return r
}

func TestEngineRunnerLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	r := newRunner(t, repo)

	require.NoError(t, r.Start())
	assert.Equal(t, 1, repo.loads)

	asset, err := r.eng.Query.IncentiveToken()
	require.NoError(t, err)
	assert.EqualValues(t, 7, asset)

	var names []string
	for _, j := range r.sched.ListJobs() {
		names = append(names, j.Name)
	}
	assert.ElementsMatch(t, []string{jobTick, jobSnapshot}, names)

	require.NoError(t, r.sched.RunNow(jobTick))
	assert.Eventually(t, func() bool {
		return r.eng.Query.Clock().Height == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, r.Stop())
	assert.Equal(t, 1, repo.saves)
}

func TestEngineRunnerWithoutSnapshot(t *testing.T) {
	r := newRunner(t, nil)

	require.NoError(t, r.Start())
	jobs := r.sched.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, jobTick, jobs[0].Name)
	require.NoError(t, r.Stop())
}

func TestEngineRunnerLoadFailure(t *testing.T) {
	repo := &fakeRepo{loadErr: errors.New("corrupt")}
	r := newRunner(t, repo)

	err := r.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load snapshot")
	assert.Empty(t, r.sched.ListJobs())
}

func TestProvideEventSink(t *testing.T) {
	sink := provideEventSink(logger.NewNoop(), nil, nil)
	require.Len(t, sink.Sinks(), 1)
	assert.Equal(t, "log", sink.Sinks()[0].Name())
	var _ event.Sink = sink
}

func TestProvideRandomSource(t *testing.T) {
	subject := []byte("subject")

	seeded := &service.Config{RandomSeed: "replay"}
	a := provideRandomSource(seeded, logger.NewNoop())
	b := provideRandomSource(seeded, logger.NewNoop())
	assert.Equal(t, a.Random(subject), b.Random(subject))

	c := provideRandomSource(&service.Config{}, logger.NewNoop())
	d := provideRandomSource(&service.Config{}, logger.NewNoop())
	assert.NotEqual(t, c.Random(subject), d.Random(subject))
}

func TestProvideJWTManagerSkipPaths(t *testing.T) {
	cfg := &Config{
		JWT: security.JWTConfig{SecretKey: "secret", SkipPaths: []string{"/debug*"}},
	}
	em, err := metrics.New(&metrics.Config{})
	require.NoError(t, err)

	m, err := provideJWTManager(cfg, em)
	require.NoError(t, err)

	tests := []struct {
		path string
		skip bool
	}{
		{"/health", true},
		{"/metrics", true},
		{"/debug/pprof", true},
		{"/api/v1/reports", true},
		{"/api/v1/reports/validate", true},
		{"/api/v1/bindings", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.skip, m.ShouldSkip(tt.path))
		})
	}
	assert.Equal(t, []string{"/debug*"}, cfg.JWT.SkipPaths)
}

func TestProvideExternalsDisabled(t *testing.T) {
	cfg := &Config{}

	rdb, err := provideRedis(cfg)
	require.NoError(t, err)
	assert.Nil(t, rdb)

	db, err := providePostgres(cfg)
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.Nil(t, provideReportDAO(db, logger.NewNoop()))

	p, err := provideKafkaProducer(cfg, logger.NewNoop())
	require.NoError(t, err)
	assert.Nil(t, p)

	assert.Nil(t, provideStateRepository(cfg, nil, nil, nil, logger.NewNoop()))
	assert.Nil(t, provideWriterLock(cfg, nil))
}

func TestProvideTracerProviderDisabled(t *testing.T) {
	tp, err := provideTracerProvider(&Config{})
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.Equal(t, "vfe", tp.Config().ServiceName)
	require.NoError(t, tp.Close())
}

func TestWebServerLimitsDeviceRoutes(t *testing.T) {
	r := newRunner(t, nil)
	cfg := &Config{
		JWT: security.JWTConfig{SecretKey: "secret"},
		RateLimit: middleware.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 0.001,
			Burst:             1,
			PerIP:             true,
		},
	}
	em, err := metrics.New(&metrics.Config{})
	require.NoError(t, err)
	reg, err := provideRegistry(em)
	require.NoError(t, err)
	jwt, err := provideJWTManager(cfg, em)
	require.NoError(t, err)
	tp, err := provideTracerProvider(cfg)
	require.NoError(t, err)
	limiter := provideRateLimiter(cfg, logger.NewNoop())
	defer limiter.Close()

	s := provideWebServer(cfg, logger.NewNoop(), jwt, limiter, tp, r.eng, nil, reg, em)
	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.7:5000"
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/api/v1/reports"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/v1/reports"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/v1/bindings"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "/health"))
	}
}
