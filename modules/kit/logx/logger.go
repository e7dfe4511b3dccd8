package logx

import (
	"context"

	"Paddlers/modules/kit/tracex"

	"go.uber.org/zap"
)

// Logger 是服务内注入用的最小日志接口。
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	WithContext(ctx context.Context) Logger
}

// ZapLogger 适配 zap，WithContext 时带上 trace_id/span_id。
type ZapLogger struct {
	logger *zap.Logger
}

func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l}
}

// Nop 返回丢弃所有输出的 Logger，测试里常用。
func Nop() Logger {
	return NewZapLogger(nil)
}

func (z *ZapLogger) With(fields ...zap.Field) Logger {
	return &ZapLogger{logger: z.logger.With(fields...)}
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return z
	}
	l := z.logger
	if tid, ok := tracex.TraceIDFrom(ctx); ok {
		l = l.With(zap.String("trace_id", tid))
	}
	if sid, ok := tracex.SpanIDFrom(ctx); ok {
		l = l.With(zap.String("span_id", sid))
	}
	return &ZapLogger{logger: l}
}

func (z *ZapLogger) Info(msg string, fields ...zap.Field)  { z.logger.Info(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...zap.Field) { z.logger.Error(msg, fields...) }
func (z *ZapLogger) Debug(msg string, fields ...zap.Field) { z.logger.Debug(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...zap.Field)  { z.logger.Warn(msg, fields...) }
