package atom

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vstate/internal/telemetry"
	"github.com/vango-dev/vstate/pkg/storage"
)

// opFlush is a queue barrier; it performs no I/O.
const opFlush = "flush"

type job struct {
	op   string
	run  func(ctx context.Context) error
	done chan struct{}
}

// persister runs one atom's storage jobs in FIFO order. At most one drain
// goroutine exists at a time and it exits when the queue is empty, so idle
// atoms hold no goroutines.
type persister struct {
	key     string
	adapter storage.Adapter
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	queue   []job
	running bool
}

func newPersister(key string, adapter storage.Adapter, timeout time.Duration, logger *slog.Logger) *persister {
	return &persister{
		key:     key,
		adapter: adapter,
		timeout: timeout,
		logger:  logger,
	}
}

// enqueue appends a job and returns a channel closed once it settled.
func (p *persister) enqueue(op string, run func(ctx context.Context) error) <-chan struct{} {
	j := job{op: op, run: run, done: make(chan struct{})}

	p.mu.Lock()
	p.queue = append(p.queue, j)
	if !p.running {
		p.running = true
		go p.drain()
	}
	p.mu.Unlock()

	return j.done
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.running = false
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.exec(j)
		close(j.done)
	}
}

func (p *persister) exec(j job) {
	if j.run == nil {
		return
	}
	m := telemetry.Default()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	ctx, span := telemetry.Tracer().Start(ctx, "vstate."+j.op,
		trace.WithAttributes(attribute.String("vstate.key", p.key)))
	defer span.End()

	start := time.Now()
	err := runJob(ctx, j.run)
	m.StorageDuration.WithLabelValues(j.op).Observe(time.Since(start).Seconds())

	if err != nil {
		m.StorageOps.WithLabelValues(j.op, telemetry.ResultError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("storage operation failed", "op", j.op, "key", p.key, "error", err)
		return
	}
	m.StorageOps.WithLabelValues(j.op, telemetry.ResultOK).Inc()
}

// runJob converts a panicking backend into an error.
func runJob(ctx context.Context, run func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storage panic: %v", r)
		}
	}()
	return run(ctx)
}
