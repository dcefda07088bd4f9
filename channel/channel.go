// Package channel provides the message channel shared by all instances of a
// process. Producers push opaque messages; consumers pop or park as waiters.
// A push with parked consumers hands the message to exactly one of them.
package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// Unbounded is the capacity value for an unbounded channel.
const Unbounded = -1

// Waiter is a parked consumer. Wake hands over a message and must return
// false when the waiter can no longer accept it (cancelled get, harvested
// instance); the channel then tries the next waiter or buffers the message.
type Waiter interface {
	Wake(msg any) bool
}

// Channel is a FIFO of opaque messages with a waiter list. The zero capacity
// semantics follow the runtime contract: Unbounded never blocks producers, a
// positive capacity blocks Push when the buffer is full.
type Channel struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	buffer   *queue.Queue
	waiters  []Waiter
	capacity int
}

// New creates an unbounded channel.
func New() *Channel {
	c := &Channel{
		buffer:   queue.New(),
		capacity: Unbounded,
	}
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// SetCapacity changes the channel capacity. Unbounded removes the bound.
func (c *Channel) SetCapacity(capacity int) {
	c.mu.Lock()
	c.capacity = capacity
	c.notFull.Broadcast()
	c.mu.Unlock()
}

// Cap returns the configured capacity, Unbounded when unbounded.
func (c *Channel) Cap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Len returns the number of buffered messages.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.Length()
}

// Push enqueues a message. If a consumer is parked the message bypasses the
// buffer and wakes exactly one waiter. With a positive capacity Push blocks
// until buffer space frees up or ctx is done.
func (c *Channel) Push(ctx context.Context, msg any) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.notFull.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		for len(c.waiters) > 0 {
			w := c.waiters[0]
			c.waiters = c.waiters[1:]
			if w.Wake(msg) {
				return nil
			}
		}
		if c.capacity == Unbounded || c.buffer.Length() < c.capacity {
			c.buffer.Add(msg)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.notFull.Wait()
	}
}

// TryGet removes the next buffered message without blocking.
func (c *Channel) TryGet() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.takeLocked()
}

// Park atomically either hands the caller the next buffered message or
// appends it to the waiter list. The returned bool reports whether the
// caller was parked.
func (c *Channel) Park(w Waiter) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg, ok := c.takeLocked(); ok {
		return msg, false
	}
	c.waiters = append(c.waiters, w)
	return nil, true
}

// Unpark removes up to n waiters matching the predicate and returns them.
// Used to harvest idle instances when a process shrinks.
func (c *Channel) Unpark(n int, match func(Waiter) bool) []Waiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []Waiter
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if len(removed) < n && match(w) {
			removed = append(removed, w)
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
	return removed
}

// Waiters returns the number of parked consumers.
func (c *Channel) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Get blocks until a message is available or ctx is done. It is intended for
// consumers outside the instance driver, e.g. tests and draining code.
func (c *Channel) Get(ctx context.Context) (any, error) {
	g := &getWaiter{ch: make(chan any, 1)}
	if msg, parked := c.Park(g); !parked {
		return msg, nil
	}
	select {
	case msg := <-g.ch:
		return msg, nil
	case <-ctx.Done():
		if g.done.CompareAndSwap(false, true) {
			return nil, ctx.Err()
		}
		// Wake won the race; the message is already in flight.
		return <-g.ch, nil
	}
}

func (c *Channel) takeLocked() (any, bool) {
	if c.buffer.Length() == 0 {
		return nil, false
	}
	msg := c.buffer.Remove()
	c.notFull.Signal()
	return msg, true
}

type getWaiter struct {
	ch   chan any
	done atomic.Bool
}

func (g *getWaiter) Wake(msg any) bool {
	if !g.done.CompareAndSwap(false, true) {
		return false
	}
	g.ch <- msg
	return true
}
