package extension

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Handler is the entry point of a process environment. It is invoked once
// per delivered message; returning an error other than process.ErrYield
// terminates the instance after the process error handler has run.
type Handler func(ctx context.Context, msg any) error

// Registry maps stable names to handlers. The reverse mapping (function
// pointer to name) is what makes handler encoding possible: Go functions
// cannot be serialized, names of registered functions can.
type Registry struct {
	handlers map[string]Handler
	names    map[uintptr]string
	mux      sync.RWMutex
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		names:    make(map[uintptr]string),
	}
}

// Register registers a handler under the supplied name, replacing any
// previous registration of that name.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("handler name was empty")
	}
	if handler == nil {
		return fmt.Errorf("handler %q was nil", name)
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if prev, ok := r.handlers[name]; ok {
		delete(r.names, entryOf(prev))
	}
	r.handlers[name] = handler
	r.names[entryOf(handler)] = name
	return nil
}

// Lookup returns a handler by name, nil when absent.
func (r *Registry) Lookup(name string) Handler {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.handlers[name]
}

// NameOf resolves the registered name of a handler.
func (r *Registry) NameOf(handler Handler) (string, bool) {
	if handler == nil {
		return "", false
	}
	r.mux.RLock()
	defer r.mux.RUnlock()
	name, ok := r.names[entryOf(handler)]
	return name, ok
}

func entryOf(handler Handler) uintptr {
	return reflect.ValueOf(handler).Pointer()
}

var std = NewRegistry()

// Default returns the process-wide registry used when no explicit registry
// is configured.
func Default() *Registry { return std }

// Register registers a handler with the default registry.
func Register(name string, handler Handler) error {
	return std.Register(name, handler)
}
