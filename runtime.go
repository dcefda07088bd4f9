package conproc

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/viant/conproc/extension"
	"github.com/viant/conproc/marshal"
	"github.com/viant/conproc/pool"
	"github.com/viant/conproc/process"
	"github.com/viant/conproc/tracing"
)

// Runtime owns the default pool and the wiring every process shares: the
// handler registry, the environment codec and the runtime configuration.
// Its lifecycle brackets the runtime: New spawns the default pool, Shutdown
// drains every pool it created.
type Runtime struct {
	config   *Config
	registry *extension.Registry
	codec    *marshal.Codec

	mu          sync.Mutex
	defaultPool *pool.Pool
	pools       []*pool.Pool
}

// New creates a runtime: validates the configuration, initialises tracing
// when enabled and spawns the default pool all unbound processes run on.
func New(options ...Option) (*Runtime, error) {
	r := &Runtime{config: DefaultConfig()}
	for _, option := range options {
		option(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if r.registry == nil {
		r.registry = extension.Default()
	}
	if r.codec == nil {
		r.codec = marshal.New(r.registry)
	}
	if r.config.Tracing.Enabled {
		if err := tracing.Init(r.config.Tracing.ServiceName, r.config.Tracing.ServiceVersion, r.config.Tracing.Output); err != nil {
			return nil, fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}
	size := r.config.Pool.Size
	if size == 0 {
		size = DefaultConfig().Pool.Size
	}
	defaultPool, err := pool.New(size)
	if err != nil {
		return nil, err
	}
	r.defaultPool = defaultPool
	r.pools = append(r.pools, defaultPool)
	process.SetDefaultPool(defaultPool)
	return r, nil
}

// Register registers a handler with the runtime registry.
func (r *Runtime) Register(name string, handler extension.Handler) error {
	return r.registry.Register(name, handler)
}

// Handler returns a registered handler by name, nil when absent.
func (r *Runtime) Handler(name string) extension.Handler {
	return r.registry.Lookup(name)
}

// DefaultPool returns the pool unbound processes run on.
func (r *Runtime) DefaultPool() *pool.Pool {
	return r.defaultPool
}

// NewPool creates an additional pool whose lifecycle is tied to the
// runtime: Shutdown drains it together with the default one.
func (r *Runtime) NewPool(size int) (*pool.Pool, error) {
	p, err := pool.New(size)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.pools = append(r.pools, p)
	r.mu.Unlock()
	return p, nil
}

// NewProcess creates a process wired to the runtime codec; the input
// channel inherits the configured capacity.
func (r *Runtime) NewProcess(ctx context.Context, handler extension.Handler, options ...process.Option) (*process.Process, error) {
	options = append([]process.Option{process.WithCodec(r.codec)}, options...)
	p, err := process.New(ctx, handler, options...)
	if err != nil {
		return nil, err
	}
	if capacity := r.config.Channel.Capacity; capacity > 0 {
		p.Input().SetCapacity(capacity)
	}
	return p, nil
}

// Shutdown drains every pool the runtime created, waiting for all workers
// to exit or for ctx to be done.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	pools := make([]*pool.Pool, len(r.pools))
	copy(pools, r.pools)
	r.mu.Unlock()
	group, ctx := errgroup.WithContext(ctx)
	for _, p := range pools {
		p := p
		group.Go(func() error {
			return p.Drain(ctx)
		})
	}
	return group.Wait()
}
