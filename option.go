package conproc

import (
	"github.com/viant/conproc/extension"
	"github.com/viant/conproc/marshal"
)

// Option customises the runtime.
type Option func(r *Runtime)

// WithConfig sets the runtime configuration.
func WithConfig(config *Config) Option {
	return func(r *Runtime) { r.config = config }
}

// WithPoolSize overrides the initial worker count of the default pool.
func WithPoolSize(size int) Option {
	return func(r *Runtime) { r.config.Pool.Size = size }
}

// WithTracing sets the tracing configuration.
func WithTracing(tracing TracingConfig) Option {
	return func(r *Runtime) { r.config.Tracing = tracing }
}

// WithRegistry sets the handler registry; the package default registry is
// used otherwise.
func WithRegistry(registry *extension.Registry) Option {
	return func(r *Runtime) { r.registry = registry }
}

// WithCodec sets the environment codec.
func WithCodec(codec *marshal.Codec) Option {
	return func(r *Runtime) { r.codec = codec }
}
