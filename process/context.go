package process

import (
	"context"
	"reflect"

	"github.com/viant/conproc/extension"
)

var instanceKey = KeyOf[*Instance]()

// KeyOf returns the reflect.Type of the provided type, used as a typed
// context key.
func KeyOf[T any]() reflect.Type {
	var t T
	return reflect.TypeOf(&t).Elem()
}

// ContextValue returns the value of the provided type from the context.
func ContextValue[T any](ctx context.Context) T {
	if value := ctx.Value(KeyOf[T]()); value != nil {
		if t, ok := value.(T); ok {
			return t
		}
	}
	var t T
	return t
}

func withInstance(ctx context.Context, i *Instance) context.Context {
	return context.WithValue(ctx, instanceKey, i)
}

// Current returns the process of the currently executing instance, nil when
// the context does not belong to a worker turn. Nested New calls use it to
// record parentage.
func Current(ctx context.Context) *Process {
	if i := ContextValue[*Instance](ctx); i != nil {
		return i.task
	}
	return nil
}

// Caps returns the capability set of the currently executing instance, or
// the default set outside a worker turn.
func Caps(ctx context.Context) *extension.Capabilities {
	if i := ContextValue[*Instance](ctx); i != nil {
		return i.caps
	}
	return extension.NewCapabilities()
}
