package sandbox

import (
	"context"

	"invest-client/src/contract"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------
// Hand-written service descriptors for the two services the client consumes.
// Messages travel with the json codec from the contract package.
// -----------------------------------------------------------------------------

type marketDataStreamServer interface {
	MarketDataStream(stream grpc.ServerStream) error
}

type instrumentsServer interface {
	Shares(ctx context.Context, req *contract.InstrumentsRequest) (*contract.SharesResponse, error)
	Currencies(ctx context.Context, req *contract.InstrumentsRequest) (*contract.CurrenciesResponse, error)
}

var marketDataStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: contract.MarketDataStreamServiceName,
	HandlerType: (*marketDataStreamServer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "MarketDataStream",
		Handler:       marketDataStreamHandler,
		ServerStreams: true,
		ClientStreams: true,
	}},
	Metadata: "marketdata.proto",
}

func marketDataStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(marketDataStreamServer).MarketDataStream(stream)
}

var instrumentsServiceDesc = grpc.ServiceDesc{
	ServiceName: contract.InstrumentsServiceName,
	HandlerType: (*instrumentsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Shares", Handler: sharesHandler},
		{MethodName: "Currencies", Handler: currenciesHandler},
	},
	Metadata: "instruments.proto",
}

func sharesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(contract.InstrumentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(instrumentsServer).Shares(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: contract.SharesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(instrumentsServer).Shares(ctx, req.(*contract.InstrumentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func currenciesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(contract.InstrumentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(instrumentsServer).Currencies(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: contract.CurrenciesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(instrumentsServer).Currencies(ctx, req.(*contract.InstrumentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
