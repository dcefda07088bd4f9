package process

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/viant/conproc/extension"
	"github.com/viant/conproc/marshal"
)

// State is the lifecycle state of an instance.
type State int32

const (
	// StateCreated is the state before initialisation completes.
	StateCreated State = iota
	// StateReady means the instance sits on its pool ready queue.
	StateReady
	// StateRunning means exactly one worker is executing the instance.
	StateRunning
	// StateBlocked means the instance is parked on its input channel.
	StateBlocked
	// StateDead is terminal.
	StateDead
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Instance is a single executor of a process. It owns a fresh decoded
// environment and capability set (its execution context) and is at any
// moment either on at most one queue or being executed by exactly one
// worker.
type Instance struct {
	id    string
	task  *Process
	env   *marshal.Envelope
	caps  *extension.Capabilities
	state atomic.Int32

	// pending is the message handed over by Wake; it is published to the
	// executing worker through the ready-queue push/pop pair.
	pending    any
	hasPending bool
}

// newInstance builds a fresh execution context for the process: decode the
// environment, install the baseline capabilities and leave the instance in
// CREATED.
func newInstance(t *Process) (*Instance, error) {
	envelope, err := t.codec.Decode(t.env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise instance: %w", err)
	}
	return &Instance{
		id:   uuid.New().String(),
		task: t,
		env:  envelope,
		caps: extension.NewCapabilities(),
	}, nil
}

// start transitions CREATED to READY and hands the instance to its pool so
// the first worker turn can park it on the input channel.
func (i *Instance) start() {
	i.state.Store(int32(StateReady))
	i.task.Pool().Enqueue(i)
}

// State returns the current lifecycle state.
func (i *Instance) State() State {
	return State(i.state.Load())
}

// Wake hands a message to a parked instance, making it ready on its pool.
// It reports false when the instance can no longer accept work.
func (i *Instance) Wake(msg any) bool {
	if !i.state.CompareAndSwap(int32(StateBlocked), int32(StateReady)) {
		return false
	}
	i.pending, i.hasPending = msg, true
	i.task.Pool().Enqueue(i)
	return true
}

// Execute runs one worker turn: resume with the pending message, then keep
// consuming buffered input until the channel runs dry, the handler yields,
// the instance is harvested, or the handler fails.
func (i *Instance) Execute(ctx context.Context) {
	if !i.state.CompareAndSwap(int32(StateReady), int32(StateRunning)) {
		return
	}
	ctx = withInstance(ctx, i)
	msg, ok := i.takePending()
	for {
		if ok {
			err := i.invoke(ctx, msg)
			switch {
			case err == nil:
			case errors.Is(err, ErrYield):
				i.state.Store(int32(StateReady))
				i.task.Pool().Enqueue(i)
				return
			default:
				i.fail(ctx, err)
				return
			}
		}
		if i.task.shouldHarvest() {
			i.state.Store(int32(StateDead))
			return
		}
		i.state.Store(int32(StateBlocked))
		next, parked := i.task.Input().Park(i)
		if parked {
			// A Remove issued between the harvest check and the park would
			// miss this instance on the waiter list; re-check now that it is
			// parked.
			i.task.harvestIfParked(i)
			return
		}
		i.state.Store(int32(StateRunning))
		msg, ok = next, true
	}
}

func (i *Instance) takePending() (any, bool) {
	msg, ok := i.pending, i.hasPending
	i.pending, i.hasPending = nil, false
	return msg, ok
}

// invoke runs the entry handler; panics terminate the instance the same way
// errors do, they never take the worker down.
func (i *Instance) invoke(ctx context.Context, msg any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return i.env.F(ctx, msg)
}

// fail routes the error to the process error handler (once), then the
// instance terminates.
func (i *Instance) fail(ctx context.Context, failure error) {
	if i.env.E != nil {
		func() {
			defer func() { _ = recover() }()
			_ = i.env.E(ctx, failure)
		}()
	} else {
		i.caps.Logf("process %s instance %s terminated: %v", i.task, i.id, failure)
	}
	i.state.Store(int32(StateDead))
	i.task.instanceDied()
}

// harvested kills an instance that Remove unparked from the input channel.
func (i *Instance) harvested() {
	if i.state.CompareAndSwap(int32(StateBlocked), int32(StateDead)) {
		i.task.mu.Lock()
		i.task.live--
		i.task.mu.Unlock()
	}
}
