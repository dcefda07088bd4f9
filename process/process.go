// Package process implements the process (task) template and its instances.
// A process couples a serialized environment with a shared input channel and
// a pool binding; each instance is an isolated executor scheduled onto pool
// workers.
package process

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/viant/conproc/channel"
	"github.com/viant/conproc/extension"
	"github.com/viant/conproc/marshal"
	"github.com/viant/conproc/pool"
	"github.com/viant/conproc/tracing"
)

// Process is the template for execution: environment, error handler, shared
// input channel, pool binding and a weak parent link. All spawned instances
// consume from the same input channel.
type Process struct {
	id uint64

	// mu is the instances mutex; it also guards the wrap-once env blob.
	mu     sync.Mutex
	env    []byte
	target int // reported instance count, reduced by Remove and by deaths
	live   int // not-yet-dead instances

	input  atomic.Pointer[channel.Channel]
	pool   atomic.Pointer[pool.Pool]
	parent uint64
	codec  *marshal.Codec
}

var (
	registry sync.Map // uint64 -> *Process
	nextID   atomic.Uint64

	defaultPool atomic.Pointer[pool.Pool]
)

// SetDefaultPool installs the pool new processes bind to when none is set
// explicitly. The runtime calls it once at startup; it is never constructed
// lazily.
func SetDefaultPool(p *pool.Pool) {
	defaultPool.Store(p)
}

// DefaultPool returns the pool installed via SetDefaultPool, nil before
// runtime initialisation.
func DefaultPool() *pool.Pool {
	return defaultPool.Load()
}

// New creates a process. A nil handler creates an empty process with no
// environment and no instances which can be filled later via Wrap. Otherwise
// the handler pair is encoded into the environment, a fresh unbounded input
// channel is allocated, the process binds to the default pool (or the
// WithPool override), parentage is recorded from the calling instance found
// in ctx, and instances are spawned (one unless WithInstances says
// otherwise).
func New(ctx context.Context, handler extension.Handler, opts ...Option) (p *Process, err error) {
	ctx, span := tracing.StartSpan(ctx, "process.new", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	o := newOptions(opts)
	codec := o.codec
	if codec == nil {
		codec = marshal.New(nil)
	}
	p = &Process{
		id:    nextID.Add(1),
		codec: codec,
	}
	p.input.Store(channel.New())
	bound := o.pool
	if bound == nil {
		bound = DefaultPool()
	}
	if bound != nil {
		p.pool.Store(bound)
	}
	if parent := Current(ctx); parent != nil {
		p.parent = parent.id
	}
	registry.Store(p.id, p)
	span.WithAttributes(map[string]string{"process.id": fmt.Sprintf("0x%x", p.id)})

	if handler == nil {
		return p, nil
	}
	if err = p.wrap(handler, o.errHandler); err != nil {
		registry.Delete(p.id)
		return nil, err
	}
	if _, err = p.Spawn(o.instanceCount()); err != nil {
		registry.Delete(p.id)
		return nil, err
	}
	return p, nil
}

// Get resolves a process handle previously obtained via Ptr. The same
// handle is returned for the same process across lookups.
func Get(ptr uint64) (*Process, error) {
	if value, ok := registry.Load(ptr); ok {
		return value.(*Process), nil
	}
	return nil, ErrProcessNotFound
}

// Destroy removes a process from the registry and releases its environment.
// It is rejected while live instances remain; drain them first with Remove.
func Destroy(p *Process) error {
	if p == nil {
		return ErrProcessNotFound
	}
	p.mu.Lock()
	if p.live > 0 {
		p.mu.Unlock()
		return ErrBusy
	}
	p.env = nil
	p.mu.Unlock()
	registry.Delete(p.id)
	return nil
}

// IsProcess tests whether the value is a process handle.
func IsProcess(value any) bool {
	_, ok := value.(*Process)
	return ok
}

// Wrap installs an environment on an empty process, then spawns instances
// (one unless WithInstances says otherwise). A process can be wrapped only
// once.
func (p *Process) Wrap(handler extension.Handler, opts ...Option) (*Process, error) {
	if handler == nil {
		return nil, fmt.Errorf("environment function: %w", ErrNotWrapped)
	}
	o := newOptions(opts)
	if err := p.wrap(handler, o.errHandler); err != nil {
		return nil, err
	}
	return p.Spawn(o.instanceCount())
}

// wrap encodes {f,e} into the wrap-once env blob. Handlers that were never
// registered get a generated registration so that every environment can make
// the encode/decode round trip.
func (p *Process) wrap(f, e extension.Handler) error {
	reg := p.codec.Registry()
	if err := ensureRegistered(reg, f); err != nil {
		return err
	}
	if e != nil {
		if err := ensureRegistered(reg, e); err != nil {
			return err
		}
	}
	data, err := p.codec.Encode(&marshal.Envelope{F: f, E: e})
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.env != nil {
		return ErrAlreadyWrapped
	}
	p.env = data
	return nil
}

func ensureRegistered(reg *extension.Registry, handler extension.Handler) error {
	if _, ok := reg.NameOf(handler); ok {
		return nil
	}
	return reg.Register("handler-"+uuid.New().String(), handler)
}

// Spawn creates n fresh instances, each with its own execution context.
func (p *Process) Spawn(n int) (*Process, error) {
	if p.pool.Load() == nil {
		return nil, ErrNotAssociated
	}
	p.mu.Lock()
	wrapped := p.env != nil
	p.mu.Unlock()
	if !wrapped {
		return nil, ErrNotWrapped
	}
	if n < 0 {
		return nil, fmt.Errorf("instance count: %w", ErrInvalidArgument)
	}
	if n == 0 {
		return p, nil
	}
	p.mu.Lock()
	if p.env == nil { // destroyed in the meantime
		p.mu.Unlock()
		return nil, ErrNotWrapped
	}
	instances := make([]*Instance, 0, n)
	for i := 0; i < n; i++ {
		instance, err := newInstance(p)
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		instances = append(instances, instance)
	}
	p.target += n
	p.live += n
	p.mu.Unlock()
	for _, instance := range instances {
		instance.start()
	}
	return p, nil
}

// Remove decrements the instance count by n, clamping at zero. Instances
// idle on the input channel are harvested immediately; running instances
// observe the count at their next safe point and self-terminate. Which
// specific instances die is not specified.
func (p *Process) Remove(n int) (*Process, error) {
	if n < 0 {
		return nil, fmt.Errorf("instance count: %w", ErrInvalidArgument)
	}
	if n == 0 {
		return p, nil
	}
	p.mu.Lock()
	p.target -= n
	if p.target < 0 {
		p.target = 0
	}
	p.mu.Unlock()
	if input := p.Input(); input != nil {
		parked := input.Unpark(n, func(w channel.Waiter) bool {
			instance, ok := w.(*Instance)
			return ok && instance.task == p
		})
		for _, w := range parked {
			w.(*Instance).harvested()
		}
	}
	return p, nil
}

// shouldHarvest reports whether the calling instance must self-terminate to
// converge live towards the reported count, accounting for its death.
func (p *Process) shouldHarvest() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live > p.target {
		p.live--
		return true
	}
	return false
}

// harvestIfParked retires a just-parked instance when the live count still
// exceeds the reported one.
func (p *Process) harvestIfParked(i *Instance) {
	p.mu.Lock()
	excess := p.live > p.target
	p.mu.Unlock()
	if !excess {
		return
	}
	removed := p.Input().Unpark(1, func(w channel.Waiter) bool {
		return w == channel.Waiter(i)
	})
	if len(removed) == 1 {
		i.harvested()
	}
}

// instanceDied accounts for an instance terminated by completion or error.
func (p *Process) instanceDied() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live--
	if p.target > 0 {
		p.target--
	}
}

// Size returns the reported instance count: instances spawned, less those
// removed via Remove and those terminated by an error.
func (p *Process) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Input returns the shared input channel.
func (p *Process) Input() *channel.Channel {
	return p.input.Load()
}

// SetInput replaces the shared input channel. Replacing is only safe when no
// instance is parked on the old channel; the runtime does not enforce this.
func (p *Process) SetInput(c *channel.Channel) *Process {
	p.input.Store(c)
	return p
}

// Pool returns the pool the process instances run on.
func (p *Process) Pool() *pool.Pool {
	return p.pool.Load()
}

// SetPool rebinds the process. New and newly woken instances go to the new
// pool; in-flight instances finish on whichever pool picked them up.
func (p *Process) SetPool(bound *pool.Pool) *Process {
	p.pool.Store(bound)
	return p
}

// Parent resolves the weak parent reference, nil when the process is a root
// or the parent handle is gone.
func (p *Process) Parent() *Process {
	if p.parent == 0 {
		return nil
	}
	if value, ok := registry.Load(p.parent); ok {
		return value.(*Process)
	}
	return nil
}

// Env returns a decoded copy of the environment, or nil for an empty
// process. When called from an instance of this very process it returns the
// context-local cached envelope instead of decoding again.
func (p *Process) Env(ctx context.Context) (*marshal.Envelope, error) {
	if i := ContextValue[*Instance](ctx); i != nil && i.task == p {
		return i.env, nil
	}
	p.mu.Lock()
	env := p.env
	p.mu.Unlock()
	if env == nil {
		return nil, nil
	}
	return p.codec.Decode(env)
}

// Send pushes one message built from the arguments to the input channel:
// a single argument travels as-is, multiple arguments as one slice.
func (p *Process) Send(ctx context.Context, args ...any) error {
	var msg any
	switch len(args) {
	case 0:
	case 1:
		msg = args[0]
	default:
		msg = args
	}
	return p.Input().Push(ctx, msg)
}

// Ptr returns an opaque stable handle usable with Get.
func (p *Process) Ptr() uint64 { return p.id }

func (p *Process) String() string {
	return fmt.Sprintf("Process (0x%x)", p.id)
}
