package network

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	headerAuthorization = "authorization"
	headerAppName       = "x-app-name"
	headerTrackingID    = "x-tracking-id"
)

// -----------------------------------------------------------------------------
// TokenInterceptor authenticates every call with a bearer token and tags it
// with the application name and a fresh tracking id.
// -----------------------------------------------------------------------------

type TokenInterceptor struct {
	token   string
	appName string
}

func NewTokenInterceptor(token, appName string) *TokenInterceptor {
	return &TokenInterceptor{token: token, appName: appName}
}

func (ti *TokenInterceptor) outgoing(ctx context.Context) context.Context {
	kv := []string{
		headerAuthorization, "Bearer " + ti.token,
		headerTrackingID, uuid.NewString(),
	}
	if ti.appName != "" {
		kv = append(kv, headerAppName, ti.appName)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// -----------------------------------------------------------------------------

func (ti *TokenInterceptor) Unary() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(ti.outgoing(ctx), method, req, reply, cc, opts...)
	}
}

func (ti *TokenInterceptor) Stream() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(ti.outgoing(ctx), desc, cc, method, opts...)
	}
}
