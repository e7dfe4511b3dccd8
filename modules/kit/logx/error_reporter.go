package logx

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

type BizLog struct {
	Action  string
	Reason  string
	Message string
}

type SysLog struct {
	Action string
	Err    error
}

// ErrorLog 是从错误链中提取出的可读结构。
type ErrorLog struct {
	Error      string
	Code       string
	Msg        string
	Reason     string
	Data       map[string]any
	CauseChain []string
	Origin     string
	Stack      string
}

type errMeta interface {
	CodeText() string
	Msg() string
	Data() map[string]any
	Reason() string
}

type stackProvider interface {
	Stack() []uintptr
}

type bizProvider interface {
	IsBiz() bool
}

func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}
	out := ErrorLog{Error: err.Error()}
	var m errMeta
	if errors.As(err, &m) {
		out.Code = m.CodeText()
		out.Msg = m.Msg()
		out.Data = m.Data()
		out.Reason = m.Reason()
	}
	var sp stackProvider
	if errors.As(err, &sp) {
		out.Origin, out.Stack = formatStack(sp.Stack(), 32)
	}
	for cur, i := errors.Unwrap(err), 0; cur != nil && i < 20; cur, i = errors.Unwrap(cur), i+1 {
		out.CauseChain = append(out.CauseChain, fmt.Sprintf("%T: %v", cur, cur))
	}
	return out
}

// ReportAccessWithLoggerContext 按 biz_code 分级：0 INFO，1~499 WARN，>=500 ERROR。
func ReportAccessWithLoggerContext(ctx context.Context, l Logger, action string, bizCode int, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := append([]zap.Field{
		zap.String("log_type", "access"),
		zap.String("action", action),
		zap.Int("biz_code", bizCode),
	}, fields...)
	withCtx := l.WithContext(ctx)
	switch {
	case bizCode == 0:
		withCtx.Info("access", base...)
	case bizCode >= 500:
		withCtx.Error("access", base...)
	default:
		withCtx.Warn("access", base...)
	}
}

func ReportBizWithLoggerContext(ctx context.Context, l Logger, biz BizLog, fields ...zap.Field) {
	if l == nil {
		return
	}
	action := biz.Action
	if action == "" {
		action = "biz_reject"
	}
	base := []zap.Field{zap.String("err_type", "biz"), zap.String("action", action)}
	msg := action
	if biz.Reason != "" {
		base = append(base, zap.String("reason", biz.Reason))
		msg += ", reason:" + biz.Reason
	}
	if biz.Message != "" {
		base = append(base, zap.String("biz_message", biz.Message))
		msg += ", msg:" + biz.Message
	}
	l.WithContext(ctx).Info(msg, append(base, fields...)...)
}

func ReportSysErrorWithLoggerContext(ctx context.Context, l Logger, sys SysLog, fields ...zap.Field) {
	if sys.Err == nil || l == nil {
		return
	}
	action := sys.Action
	if action == "" {
		action = "sys_error"
	}
	meta := BuildErrorLog(sys.Err)
	base := []zap.Field{zap.String("err_type", "sys"), zap.String("action", action)}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin), zap.String("stack_origin", meta.Stack))
	}
	msg := fmt.Sprintf("%s, error:%s", action, meta.Error)
	if meta.Reason != "" {
		msg = fmt.Sprintf("%s, reason:%s, error:%s", action, meta.Reason, meta.Error)
	}
	l.WithContext(ctx).Error(msg, append(base, fields...)...)
}

// ReportError 按错误类型分流：业务拒绝记 INFO，其它按系统错误记 ERROR。
func ReportError(ctx context.Context, l Logger, action string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	var bp bizProvider
	if errors.As(err, &bp) && bp.IsBiz() {
		meta := BuildErrorLog(err)
		ReportBizWithLoggerContext(ctx, l, BizLog{Action: action, Reason: meta.Reason, Message: meta.Msg}, fields...)
		return
	}
	ReportSysErrorWithLoggerContext(ctx, l, SysLog{Action: action, Err: err}, fields...)
}

func formatStack(pcs []uintptr, maxFrames int) (origin string, stack string) {
	if len(pcs) == 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	for i := 0; i < maxFrames; i++ {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" {
			break
		}
		line := fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
		if origin == "" {
			origin = line
		}
		b.WriteString(line)
		if !more {
			break
		}
		b.WriteByte('\n')
	}
	return origin, b.String()
}
