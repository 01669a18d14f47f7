// Package pool implements a fixed-size worker pool: a set of goroutines
// jointly draining a single shared task queue. Per-session ordering is not
// the pool's job — the transport layer's strand (see transport.TCPSession)
// serializes that; the pool just keeps sockets and method invocations
// making progress without starvation.
package pool

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ErrStopped is returned by Post once the pool has been stopped: work
// posted after stop must be rejected cleanly, not crash.
var ErrStopped = errors.New("pool: stopped")

// statsInterval is how often Pool logs a runtime snapshot at debug level.
const statsInterval = 15 * time.Second

// Pool is a fixed-size set of goroutines dequeuing from one shared task
// queue.
type Pool struct {
	logger  *slog.Logger
	size    int
	tasks   chan func()
	onError atomic.Pointer[func(error)]

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   atomic.Bool
	wg        sync.WaitGroup

	statsStop chan struct{}
	active    atomic.Int64
}

// New constructs a Pool with the given number of workers (size < 1 is
// clamped to 1) and queue depth for buffered task submission.
func New(logger *slog.Logger, size int, queueDepth int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	return &Pool{
		logger: logger.With("component", "pool"),
		size:   size,
		tasks:  make(chan func(), queueDepth),
	}
}

// OnError installs the handler invoked when a worker's task panics. After
// the handler runs, that worker terminates and a replacement worker is
// started, so the pool keeps its configured size. Install before Start.
func (p *Pool) OnError(handler func(error)) {
	p.onError.Store(&handler)
}

// Start spawns the worker goroutines. Idempotent.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.runWorker(i)
		}
		p.statsStop = make(chan struct{})
		go p.reportStats()
		p.logger.Info("worker pool started", "workers", p.size)
	})
}

// Stop cancels outstanding work and joins all worker goroutines.
// Idempotent; safe to call even if Start was never called.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.tasks)
		if p.statsStop != nil {
			close(p.statsStop)
		}
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

// Post enqueues fn to run on any worker. Returns ErrStopped if the pool has
// already been stopped.
func (p *Pool) Post(fn func()) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	// A Stop() racing with this send could still panic on a closed channel;
	// recover and translate to ErrStopped rather than letting it crash the
	// caller, per spec §4.8 (I5).
	var sendErr error
	func() {
		defer func() {
			if recover() != nil {
				sendErr = ErrStopped
			}
		}()
		p.tasks <- fn
	}()
	return sendErr
}

// ActiveWorkers reports how many workers are currently executing a task
// (not idle waiting on the queue).
func (p *Pool) ActiveWorkers() int64 { return p.active.Load() }

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for fn := range p.tasks {
		if p.stopped.Load() {
			// Stop cancels work still queued: drain it without running it.
			continue
		}
		p.runTask(id, fn)
	}
}

// runTask executes fn, recovering a panic and routing it to the installed
// error handler. Per spec §4.8, a worker that observes a terminal fault
// runs the handler once and then this goroutine returns — it does not loop
// back to dequeue further tasks — while the rest of the pool continues.
func (p *Pool) runTask(id int, fn func()) {
	p.active.Add(1)
	defer p.active.Add(-1)

	terminated := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				terminated = true
				err, ok := r.(error)
				if !ok {
					err = &panicError{value: r}
				}
				p.logger.Error("worker task panicked", "worker", id, "error", err)
				if h := p.onError.Load(); h != nil {
					(*h)(err)
				}
			}
		}()
		fn()
	}()

	if terminated {
		// Re-spawn a replacement worker so the configured pool size is
		// maintained; this worker's goroutine still exits right after.
		p.wg.Add(1)
		go p.runWorker(id)
		runtime.Goexit()
	}
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "panic: " + formatPanicValue(e.value) }

func formatPanicValue(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}

func (p *Pool) reportStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.statsStop:
			return
		case <-ticker.C:
			percent, err := cpu.Percent(0, false)
			var cpuPct float64
			if err == nil && len(percent) > 0 {
				cpuPct = percent[0]
			}
			p.logger.Debug("pool stats",
				"active_workers", p.active.Load(),
				"configured_workers", p.size,
				"queued_tasks", len(p.tasks),
				"goroutines", runtime.NumGoroutine(),
				"cpu_percent", cpuPct,
			)
		}
	}
}
