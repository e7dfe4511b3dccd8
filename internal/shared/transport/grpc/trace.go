package grpc

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"Paddlers/internal/shared/transport"
	"Paddlers/modules/kit/logx"
	"Paddlers/modules/kit/tracex"
)

// traceHeaders metadata 键与 tracex 读写函数的对应。
var traceHeaders = []struct {
	key  string
	from func(context.Context) (string, bool)
	with func(context.Context, string) context.Context
}{
	{"x-trace-id", tracex.TraceIDFrom, tracex.WithTraceID},
	{"x-span-id", tracex.SpanIDFrom, tracex.WithSpanID},
}

// bizCodes grpc 状态码到业务码，未列出的一律记系统错误。
var bizCodes = map[codes.Code]int{
	codes.OK:                transport.OK,
	codes.InvalidArgument:   transport.InvalidParam,
	codes.NotFound:          transport.NotFound,
	codes.PermissionDenied:  transport.Forbidden,
	codes.Unauthenticated:   transport.Unauthorized,
	codes.ResourceExhausted: transport.TooManyRequests,
}

func UnaryClientTraceInterceptor() gogrpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *gogrpc.ClientConn,
		invoker gogrpc.UnaryInvoker, opts ...gogrpc.CallOption) error {
		return invoker(injectTraceToOutgoing(ctx), method, req, reply, cc, opts...)
	}
}

// UnaryServerInterceptor 沿用调用方的 trace，panic 转成 Internal，按结果写访问日志。
func UnaryServerInterceptor(log logx.Logger) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (resp any, err error) {
		ctx = transport.NewContextWithParent(extractTraceFromIncoming(ctx), "GRPC "+info.FullMethod, "grpc")
		defer func() {
			if p := recover(); p != nil {
				err = recovered(ctx, log, p)
			}
			finish(ctx, log, err)
		}()
		return handler(ctx, req)
	}
}

// StreamServerInterceptor health Watch 等流式调用。
func StreamServerInterceptor(log logx.Logger) gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, info *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) (err error) {
		ctx := transport.NewContextWithParent(extractTraceFromIncoming(ss.Context()), "GRPC "+info.FullMethod, "grpc")
		defer func() {
			if p := recover(); p != nil {
				err = recovered(ctx, log, p)
			}
			finish(ctx, log, err)
		}()
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

func recovered(ctx context.Context, log logx.Logger, p any) error {
	log.WithContext(ctx).Error("grpc handler panic", zap.String("panic", fmt.Sprint(p)))
	return status.Error(codes.Internal, "internal error")
}

func finish(ctx context.Context, log logx.Logger, err error) {
	st := status.Code(err)
	code, ok := bizCodes[st]
	if !ok {
		code = transport.SystemError
		transport.SetErrorReason(ctx, st.String())
	}
	transport.SetBizCode(ctx, transport.BizCode(code))
	transport.WriteAccessLog(ctx, log)
}

type wrappedServerStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

func injectTraceToOutgoing(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, h := range traceHeaders {
		if v, ok := h.from(ctx); ok {
			ctx = metadata.AppendToOutgoingContext(ctx, h.key, v)
		}
	}
	return ctx
}

func extractTraceFromIncoming(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	for _, h := range traceHeaders {
		if vs := md.Get(h.key); len(vs) > 0 && vs[0] != "" {
			ctx = h.with(ctx, vs[0])
		}
	}
	return ctx
}
