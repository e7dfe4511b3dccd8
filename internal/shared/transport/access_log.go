package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/modules/kit/logx"
	"Paddlers/modules/kit/tracex"
)

// AccessLog 一次指令的访问日志，HTTP、WS、gRPC 共用。
// 入口创建，handler 补充玩家、村庄和结果，出口统一写一条。
type AccessLog struct {
	Action      string
	BizCode     BizCode
	ErrorReason string
	PlayerID    int64
	VillageID   int64
	start       time.Time
}

type accessLogKey struct{}

func NewContext(action, span string) context.Context {
	return NewContextWithParent(context.Background(), action, span)
}

// NewContextWithParent 沿用父 context 的取消信号和 trace id。
func NewContextWithParent(parent context.Context, action, span string) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	ctx := tracex.Ensure(parent)
	if span != "" {
		ctx = tracex.WithSpanID(ctx, span)
	}
	return context.WithValue(ctx, accessLogKey{}, &AccessLog{
		Action:  action,
		BizCode: BizCode(SystemError),
		start:   time.Now(),
	})
}

func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

func update(ctx context.Context, fn func(al *AccessLog)) {
	if al := FromContext(ctx); al != nil {
		fn(al)
	}
}

func SetBizCode(ctx context.Context, code BizCode) {
	update(ctx, func(al *AccessLog) { al.BizCode = code })
}

func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	update(ctx, func(al *AccessLog) { al.ErrorReason = reason })
}

func SetPlayer(ctx context.Context, playerID int64) {
	update(ctx, func(al *AccessLog) { al.PlayerID = playerID })
}

func SetVillage(ctx context.Context, villageID int64) {
	update(ctx, func(al *AccessLog) { al.VillageID = villageID })
}

func (al *AccessLog) fields() []zap.Field {
	fields := make([]zap.Field, 0, 5)
	fields = append(fields, zap.Duration("latency", time.Since(al.start)))
	if al.PlayerID != 0 {
		fields = append(fields, zap.Int64("player_id", al.PlayerID))
	}
	if al.VillageID != 0 {
		fields = append(fields, zap.Int64("village_id", al.VillageID))
	}
	if al.BizCode == BizCode(OK) {
		return append(fields, zap.String("result", "success"))
	}
	fields = append(fields, zap.String("result", "failure"))
	if al.ErrorReason != "" {
		fields = append(fields, zap.String("error_reason", al.ErrorReason))
	}
	return fields
}

// WriteAccessLog 出口处调用，context 上没有访问日志时什么都不做。
func WriteAccessLog(ctx context.Context, log logx.Logger) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}
	logx.ReportAccessWithLoggerContext(ctx, log, al.Action, int(al.BizCode), al.fields()...)
}
