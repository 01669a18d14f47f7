package pool

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_RunsPostedTasks(t *testing.T) {
	p := New(testLogger(), 4, 16)
	p.Start()
	defer p.Stop()

	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Post(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()
	require.EqualValues(t, 100, n.Load())
}

func TestPool_PostAfterStopIsRejectedCleanly(t *testing.T) {
	p := New(testLogger(), 2, 4)
	p.Start()
	p.Stop()

	err := p.Post(func() {})
	require.ErrorIs(t, err, ErrStopped)
}

func TestPool_StopIsIdempotent(t *testing.T) {
	p := New(testLogger(), 2, 4)
	p.Start()
	p.Stop()
	require.NotPanics(t, func() { p.Stop() })
}

func TestPool_SurvivesWorkerPanic(t *testing.T) {
	p := New(testLogger(), 2, 8)
	var caught atomic.Pointer[error]
	p.OnError(func(err error) {
		caught.Store(&err)
	})
	p.Start()
	defer p.Stop()

	require.NoError(t, p.Post(func() {
		panic(errors.New("boom"))
	}))

	// Give the panic time to propagate to the handler.
	deadline := time.Now().Add(2 * time.Second)
	for caught.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, caught.Load())

	// The pool keeps accepting and running work after a worker crashes.
	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Post(func() { wg.Done() }))
	wg.Wait()
}
