package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"Paddlers/internal/shared/transport"
	"Paddlers/modules/kit/logx"
)

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(data []byte) (int, error) {
	_, _ = w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	_, _ = w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// AccessLog 每个请求一条访问日志，业务码取自响应体的 code 字段。
// websocket 升级请求不捕获响应体。
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx := transport.NewContextWithParent(c.Request.Context(), c.Request.Method+" "+route, "http")
		c.Request = c.Request.WithContext(ctx)

		var bw *bodyCaptureWriter
		if c.GetHeader("Upgrade") == "" {
			bw = &bodyCaptureWriter{ResponseWriter: c.Writer}
			c.Writer = bw
		}

		c.Next()

		switch {
		case bw != nil && hasBizCode(bw.body.Bytes()):
			transport.SetBizCode(ctx, transport.BizCode(parseBizCode(bw.body.Bytes())))
		case c.Writer.Status() >= http.StatusBadRequest:
			transport.SetBizCode(ctx, transport.BizCode(transport.SystemError))
		default:
			transport.SetBizCode(ctx, transport.BizCode(transport.OK))
		}
		transport.WriteAccessLog(ctx, log)
	}
}

type codeOnly struct {
	Code *int `json:"code"`
}

func hasBizCode(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var p codeOnly
	return json.Unmarshal(body, &p) == nil && p.Code != nil
}

func parseBizCode(body []byte) int {
	var p codeOnly
	if json.Unmarshal(body, &p) != nil || p.Code == nil {
		return transport.SystemError
	}
	return *p.Code
}
