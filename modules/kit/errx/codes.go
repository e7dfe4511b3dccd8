package errx

// 跨服务统一的系统类错误码；业务码由各服务自己定义。
const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeTimeout     Code = "TIMEOUT"
)

var (
	ErrInternal    = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
)
