package process

import (
	"github.com/viant/conproc/extension"
	"github.com/viant/conproc/marshal"
	"github.com/viant/conproc/pool"
)

// Option customises process creation.
type Option func(o *options)

type options struct {
	errHandler extension.Handler
	instances  *int
	pool       *pool.Pool
	codec      *marshal.Codec
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) instanceCount() int {
	if o.instances == nil {
		return 1
	}
	return *o.instances
}

// WithErrorHandler sets the error function of the process; it is called
// whenever an instance raises an error, and the instance terminates after it
// returns.
func WithErrorHandler(handler extension.Handler) Option {
	return func(o *options) { o.errHandler = handler }
}

// WithInstances sets the number of instances to create.
func WithInstances(n int) Option {
	return func(o *options) { o.instances = &n }
}

// WithPool binds the process to a pool other than the default one.
func WithPool(p *pool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithCodec sets the environment codec; the default codec resolves handlers
// through the default registry.
func WithCodec(codec *marshal.Codec) Option {
	return func(o *options) { o.codec = codec }
}
