package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/neogan74/fedbridge/internal/metrics"
)

// ErrChannelClosed is returned when sending on a closed channel. The
// reconciler treats it as fatal to the owning task.
var ErrChannelClosed = errors.New("bridge channel closed")

// Channel is the ordered, bounded message sink between the core and the
// presentation layer. A full buffer blocks the sender (backpressure);
// a closed channel fails sends permanently.
type Channel struct {
	ch        chan Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a bridge channel with the given buffer size
func NewChannel(bufferSize int) *Channel {
	return &Channel{
		ch:   make(chan Msg, bufferSize),
		done: make(chan struct{}),
	}
}

// Send delivers a message in order, blocking while the buffer is full.
// It fails with ErrChannelClosed after Close, or with the context error
// if the caller gives up first.
func (c *Channel) Send(ctx context.Context, msg Msg) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case <-c.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.ch <- msg:
		metrics.BridgeMessagesTotal.WithLabelValues(msg.Payload.Type()).Inc()
		return nil
	}
}

// Messages exposes the consumer side of the channel
func (c *Channel) Messages() <-chan Msg {
	return c.ch
}

// Done is closed when the channel is shut down
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close shuts the channel down. Pending buffered messages remain
// readable; further sends fail.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
