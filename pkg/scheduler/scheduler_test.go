package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRunNow(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	calls := 0
	require.NoError(t, s.AddFunc("tick", "@every 1m", func(context.Context) error {
		calls++
		return nil
	}))
	require.NoError(t, s.AddFunc("broken", "@every 1h", func(context.Context) error {
		return errors.New("boom")
	}))

	assert.ErrorIs(t, s.AddFunc("tick", "@every 1m", nil), ErrJobExists)
	assert.Error(t, s.AddFunc("bad", "not a spec", nil))

	require.NoError(t, s.RunNow("tick"))
	assert.Error(t, s.RunNow("broken"))
	assert.ErrorIs(t, s.RunNow("missing"), ErrJobNotFound)
	assert.Equal(t, 1, calls)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "broken", jobs[0].Name)
	assert.Equal(t, int64(1), jobs[0].Failures)
	assert.Equal(t, "tick", jobs[1].Name)
	assert.Equal(t, int64(1), jobs[1].Runs)

	require.NoError(t, s.Remove("broken"))
	assert.Len(t, s.ListJobs(), 1)
}

func TestStartStop(t *testing.T) {
	s, err := New(&Config{Location: "UTC", WithSeconds: true})
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddFunc("fast", "* * * * * *", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))
	s.Start()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestBadLocation(t *testing.T) {
	_, err := New(&Config{Location: "Mars/Olympus"})
	assert.Error(t, err)
}
