package stream

import (
	"sync/atomic"

	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// Receiver is one independent subscriber of a MarketDataStream. It sees only
// events published after it was created. Events share payload pointers with
// other receivers and must be treated as read-only.
// -----------------------------------------------------------------------------

type Receiver struct {
	id      string
	events  chan models.MMarketDataEvent
	dropped atomic.Uint64
	stream  *MarketDataStream
}

func (r *Receiver) ID() string { return r.id }

// Events is closed when the stream terminates or the receiver is closed.
func (r *Receiver) Events() <-chan models.MMarketDataEvent {
	return r.events
}

// Dropped counts events lost because the buffer was full.
func (r *Receiver) Dropped() uint64 {
	return r.dropped.Load()
}

// Close detaches the receiver. It does not stop the stream.
func (r *Receiver) Close() {
	r.stream.removeReceiver(r.id)
}
