package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWaiter struct {
	messages chan any
	accept   bool
}

func newRecordingWaiter(accept bool) *recordingWaiter {
	return &recordingWaiter{messages: make(chan any, 8), accept: accept}
}

func (w *recordingWaiter) Wake(msg any) bool {
	if !w.accept {
		return false
	}
	w.messages <- msg
	return true
}

func TestChannelPushGet(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.Push(ctx, "a"))
	require.NoError(t, c.Push(ctx, "b"))
	assert.Equal(t, 2, c.Len())

	msg, ok := c.TryGet()
	require.True(t, ok)
	assert.Equal(t, "a", msg)
	msg, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", msg)
	_, ok = c.TryGet()
	assert.False(t, ok)
}

func TestChannelWakesOneWaiter(t *testing.T) {
	ctx := context.Background()
	c := New()
	first := newRecordingWaiter(true)
	second := newRecordingWaiter(true)
	_, parked := c.Park(first)
	require.True(t, parked)
	_, parked = c.Park(second)
	require.True(t, parked)
	assert.Equal(t, 2, c.Waiters())

	require.NoError(t, c.Push(ctx, 1))
	select {
	case msg := <-first.messages:
		assert.Equal(t, 1, msg)
	case <-time.After(time.Second):
		t.Fatal("first waiter was not woken")
	}
	select {
	case <-second.messages:
		t.Fatal("second waiter received the message too")
	default:
	}
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, c.Waiters())
}

func TestChannelSkipsRejectingWaiter(t *testing.T) {
	ctx := context.Background()
	c := New()
	stale := newRecordingWaiter(false)
	live := newRecordingWaiter(true)
	_, parked := c.Park(stale)
	require.True(t, parked)
	_, parked = c.Park(live)
	require.True(t, parked)

	require.NoError(t, c.Push(ctx, "msg"))
	select {
	case msg := <-live.messages:
		assert.Equal(t, "msg", msg)
	case <-time.After(time.Second):
		t.Fatal("live waiter was not woken")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestChannelParkReturnsBuffered(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.Push(ctx, 42))
	w := newRecordingWaiter(true)
	msg, parked := c.Park(w)
	assert.False(t, parked)
	assert.Equal(t, 42, msg)
}

func TestChannelCapacityBlocksPush(t *testing.T) {
	ctx := context.Background()
	c := New()
	c.SetCapacity(1)
	assert.Equal(t, 1, c.Cap())
	require.NoError(t, c.Push(ctx, 1))

	pushed := make(chan error, 1)
	go func() {
		pushed <- c.Push(ctx, 2)
	}()
	select {
	case <-pushed:
		t.Fatal("Push did not block on a full channel")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := c.TryGet()
	require.True(t, ok)
	select {
	case err := <-pushed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Push did not resume after TryGet")
	}
}

func TestChannelPushCancelled(t *testing.T) {
	c := New()
	c.SetCapacity(1)
	require.NoError(t, c.Push(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Push(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelGetCancelled(t *testing.T) {
	c := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelUnpark(t *testing.T) {
	c := New()
	first := newRecordingWaiter(true)
	second := newRecordingWaiter(true)
	c.Park(first)
	c.Park(second)

	removed := c.Unpark(1, func(w Waiter) bool { return w == second })
	require.Len(t, removed, 1)
	assert.Equal(t, Waiter(second), removed[0])
	assert.Equal(t, 1, c.Waiters())
}
