package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 响应体 code 字段的取值，0 为成功。
const (
	OK              = 0
	InvalidParam    = 1
	SystemError     = 2
	Unauthorized    = 3
	Forbidden       = 4
	NotFound        = 5
	TooManyRequests = 6
	// 业务拒绝
	TaskRejected      = 100
	NotEnoughResource = 101
	PurchaseRejected  = 102
)
