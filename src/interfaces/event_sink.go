package interfaces

import "invest-client/src/models"

// -----------------------------------------------------------------------------
// IEventSink receives decoded market data events, e.g. the websocket relay.
// -----------------------------------------------------------------------------

type IEventSink interface {
	// Broadcast must not block the caller.
	Broadcast(event models.MMarketDataEvent)
}
