// Package marshal encodes and decodes process environments. An environment
// is the pair {entry handler, optional error handler}; it is serialized by
// registered name so that a fresh, isolated execution context can resolve it
// back to the same functions through the handler registry.
package marshal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viant/conproc/extension"
)

// ErrUnregisteredHandler indicates an attempt to encode a handler that was
// never registered.
var ErrUnregisteredHandler = errors.New("handler not registered")

// Envelope is a decoded process environment.
type Envelope struct {
	F extension.Handler
	E extension.Handler
}

type wire struct {
	F string `json:"f"`
	E string `json:"e,omitempty"`
}

// Codec encodes envelopes against a handler registry.
type Codec struct {
	registry *extension.Registry
}

// New creates a codec backed by the supplied registry; a nil registry falls
// back to the default one.
func New(registry *extension.Registry) *Codec {
	if registry == nil {
		registry = extension.Default()
	}
	return &Codec{registry: registry}
}

// Registry returns the handler registry backing this codec.
func (c *Codec) Registry() *extension.Registry { return c.registry }

// Encode serializes an envelope. Both handlers must be registered; the error
// handler may be nil.
func (c *Codec) Encode(envelope *Envelope) ([]byte, error) {
	if envelope == nil || envelope.F == nil {
		return nil, fmt.Errorf("envelope entry function was empty")
	}
	var w wire
	name, ok := c.registry.NameOf(envelope.F)
	if !ok {
		return nil, fmt.Errorf("entry function: %w", ErrUnregisteredHandler)
	}
	w.F = name
	if envelope.E != nil {
		if name, ok = c.registry.NameOf(envelope.E); !ok {
			return nil, fmt.Errorf("error function: %w", ErrUnregisteredHandler)
		}
		w.E = name
	}
	return json.Marshal(&w)
}

// Decode deserializes an envelope, resolving handlers through the registry.
func (c *Codec) Decode(data []byte) (*Envelope, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	envelope := &Envelope{}
	if envelope.F = c.registry.Lookup(w.F); envelope.F == nil {
		return nil, fmt.Errorf("entry function %q: %w", w.F, ErrUnregisteredHandler)
	}
	if w.E != "" {
		if envelope.E = c.registry.Lookup(w.E); envelope.E == nil {
			return nil, fmt.Errorf("error function %q: %w", w.E, ErrUnregisteredHandler)
		}
	}
	return envelope, nil
}
