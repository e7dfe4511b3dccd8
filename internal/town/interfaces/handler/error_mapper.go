package handler

import (
	"context"
	nethttp "net/http"

	"Paddlers/internal/shared/transport"
	townactor "Paddlers/internal/town/actor"
	"Paddlers/modules/kit/errx"
	"Paddlers/modules/kit/logx"
)

// failure 返回给客户端的错误：HTTP 状态、业务码、提示和附带数据。
type failure struct {
	status int
	code   int
	msg    string
	data   map[string]any
}

func httpStatus(code int) int {
	switch code {
	case transport.OK:
		return nethttp.StatusOK
	case transport.InvalidParam:
		return nethttp.StatusBadRequest
	case transport.Unauthorized:
		return nethttp.StatusUnauthorized
	case transport.Forbidden:
		return nethttp.StatusForbidden
	case transport.NotFound:
		return nethttp.StatusNotFound
	case transport.TooManyRequests:
		return nethttp.StatusTooManyRequests
	case transport.TaskRejected, transport.NotEnoughResource, transport.PurchaseRejected:
		return nethttp.StatusUnprocessableEntity
	default:
		return nethttp.StatusInternalServerError
	}
}

// mapError 业务拒绝带上 reason 和错误数据，系统错误只给通用提示。
func mapError(ctx context.Context, log logx.Logger, action string, err error) failure {
	code := townactor.CodeFromError(err)
	f := failure{status: httpStatus(code), code: code}

	xe, ok := errx.As(err)
	if ok && xe.IsBiz() {
		transport.SetErrorReason(ctx, xe.Reason())
		logx.ReportError(ctx, log, action, err)
		f.msg = xe.Msg()
		f.data = xe.Data()
		return f
	}
	if ok {
		transport.SetErrorReason(ctx, xe.CodeText())
	}
	logx.ReportError(ctx, log, action, err)
	f.msg = "系统繁忙，请稍后重试"
	return f
}
