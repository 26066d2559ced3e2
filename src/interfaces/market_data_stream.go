package interfaces

import "invest-client/src/contract"

// -----------------------------------------------------------------------------
// IMarketDataStreamClient is the client side of the bidirectional market data
// stream. Send and Recv may run on different goroutines, but neither may be
// called from two goroutines at once.
// -----------------------------------------------------------------------------

type IMarketDataStreamClient interface {

	// Send writes one control request.
	Send(req *contract.MarketDataRequest) error

	// -----------------------------------------------------------------------------

	// Recv blocks for the next response. io.EOF marks a clean end of stream.
	Recv() (*contract.MarketDataResponse, error)

	// -----------------------------------------------------------------------------

	// CloseSend half-closes the stream; responses keep arriving.
	CloseSend() error
}
