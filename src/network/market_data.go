package network

import (
	"context"

	"invest-client/src/contract"
	"invest-client/src/interfaces"

	"google.golang.org/grpc"
)

var marketDataStreamDesc = &grpc.StreamDesc{
	StreamName:    "MarketDataStream",
	ServerStreams: true,
	ClientStreams: true,
}

// marketDataStreamClient types the raw grpc stream.
type marketDataStreamClient struct {
	grpc.ClientStream
}

func (c *marketDataStreamClient) Send(req *contract.MarketDataRequest) error {
	return c.ClientStream.SendMsg(req)
}

func (c *marketDataStreamClient) Recv() (*contract.MarketDataResponse, error) {
	resp := new(contract.MarketDataResponse)
	if err := c.ClientStream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// -----------------------------------------------------------------------------

// OpenMarketDataStream opens the bidirectional market data stream on conn,
// passing the call through interceptor. ctx bounds the stream's lifetime.
func OpenMarketDataStream(ctx context.Context, conn *grpc.ClientConn, interceptor grpc.StreamClientInterceptor) (interfaces.IMarketDataStreamClient, error) {
	streamer := func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return cc.NewStream(ctx, desc, method, opts...)
	}

	cs, err := interceptor(ctx, marketDataStreamDesc, conn, contract.MarketDataStreamMethod, streamer,
		grpc.CallContentSubtype(contract.CodecName))
	if err != nil {
		return nil, err
	}
	return &marketDataStreamClient{ClientStream: cs}, nil
}
