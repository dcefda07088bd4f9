package process

import "errors"

var (
	// ErrInvalidArgument indicates a negative instance count.
	ErrInvalidArgument = errors.New("argument must be positive or zero")

	// ErrNotAssociated indicates spawning on a process with no pool.
	ErrNotAssociated = errors.New("process must be associated to a pool")

	// ErrNotWrapped indicates spawning on a process with no environment.
	ErrNotWrapped = errors.New("process must have an environment")

	// ErrAlreadyWrapped indicates wrapping a process twice.
	ErrAlreadyWrapped = errors.New("process already has an environment")

	// ErrProcessNotFound indicates a process lookup that resolved to nothing.
	ErrProcessNotFound = errors.New("process not found")

	// ErrBusy indicates destroying a process that still has live instances.
	ErrBusy = errors.New("process has live instances")
)

// ErrYield is returned by a handler to give the worker back while keeping
// the instance immediately ready; it is re-enqueued on its pool instead of
// parking on the input channel.
var ErrYield = errors.New("yield")
