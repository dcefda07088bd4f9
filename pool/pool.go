// Package pool implements the dynamic worker pool. Workers draw ready
// instances from a shared lock-free FIFO; the pool grows by spawning workers
// and shrinks by pushing a nil sentinel that the next idle worker consumes.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/viant/conproc/queue"
	"github.com/viant/conproc/tracing"
)

var (
	// ErrInvalidArgument indicates a negative size or count.
	ErrInvalidArgument = errors.New("argument must be positive or zero")

	// ErrPoolNull indicates a pool lookup that resolved to nothing.
	ErrPoolNull = errors.New("pool is null")
)

// Entry is one unit of ready work; the pool only ever sees this interface.
// A nil Entry on the ready queue is the exit sentinel: whichever worker pops
// it terminates.
type Entry interface {
	Execute(ctx context.Context)
}

// Pool is a dynamic set of workers sharing one ready queue.
type Pool struct {
	id    uint64
	ready *queue.Queue[Entry]

	mu   sync.Mutex // guards size and worker spawn
	size int

	live atomic.Int32
	wg   sync.WaitGroup
}

var (
	registry sync.Map // uint64 -> *Pool
	nextID   atomic.Uint64
)

// New creates a pool with an unbounded ready queue and spawns the initial
// workers.
func New(size int) (*Pool, error) {
	if size < 0 {
		return nil, fmt.Errorf("initial pool size: %w", ErrInvalidArgument)
	}
	p := &Pool{
		id:    nextID.Add(1),
		ready: queue.New[Entry](),
	}
	registry.Store(p.id, p)
	if err := p.Add(size); err != nil {
		return nil, err
	}
	return p, nil
}

// Get resolves a pool handle previously obtained via Ptr.
func Get(ptr uint64) (*Pool, error) {
	if value, ok := registry.Load(ptr); ok {
		return value.(*Pool), nil
	}
	return nil, ErrPoolNull
}

// Add spawns n workers. The size counter grows monotonically; Kill never
// decrements it.
func (p *Pool) Add(n int) error {
	if n < 0 {
		return fmt.Errorf("worker count: %w", ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		p.live.Add(1)
		p.wg.Add(1)
		go p.worker()
	}
	p.size += n
	return nil
}

// Kill schedules the destruction of a single worker. The sentinel is honored
// at pop time, so no worker dies while holding work.
func (p *Pool) Kill() {
	p.ready.Push(nil)
}

// Size returns the intended pool size: the sum of all Add calls. Scheduled
// kills do not reduce it.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Workers returns the number of live workers.
func (p *Pool) Workers() int {
	return int(p.live.Load())
}

// Ptr returns an opaque stable handle usable with Get.
func (p *Pool) Ptr() uint64 { return p.id }

// Enqueue makes an entry available to the pool workers.
func (p *Pool) Enqueue(entry Entry) {
	p.ready.Push(entry)
}

// Drain schedules the destruction of every live worker and waits for them to
// exit or for ctx to be done.
func (p *Pool) Drain(ctx context.Context) error {
	for i := p.Workers(); i > 0; i-- {
		p.Kill()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("Pool (0x%x)", p.id)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	defer p.live.Add(-1)
	for {
		entry := p.ready.Pop()
		if entry == nil {
			return
		}
		ctx, span := tracing.StartSpan(context.Background(), "pool.resume", "INTERNAL")
		span.WithAttributes(map[string]string{"pool.id": fmt.Sprintf("0x%x", p.id)})
		entry.Execute(ctx)
		tracing.EndSpan(span, nil)
	}
}
