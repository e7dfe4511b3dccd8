package transport

// Response HTTP 与 WS 共用的响应包：{"code":0,"msg":"","data":...}
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func Success(data any) Response {
	return Response{Code: OK, Data: data}
}

func Error(code int, msg string) Response {
	return Response{Code: code, Msg: msg}
}
