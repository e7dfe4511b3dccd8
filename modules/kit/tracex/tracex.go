package tracex

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type traceIDKey struct{}
type spanIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(traceIDKey{}).(string)
	return s, ok && s != ""
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey{}, spanID)
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(spanIDKey{}).(string)
	return s, ok && s != ""
}

// Ensure 没有 trace_id 时补一个新的，后台 tick 用它串联一次执行的全部日志。
func Ensure(ctx context.Context) context.Context {
	if _, ok := TraceIDFrom(ctx); ok {
		return ctx
	}
	return WithTraceID(ctx, NewTraceID())
}

// NewTraceID 16 字节随机 hex。
func NewTraceID() string {
	return randHex(16)
}

// NewSpanID 8 字节随机 hex。
func NewSpanID() string {
	return randHex(8)
}

func randHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
