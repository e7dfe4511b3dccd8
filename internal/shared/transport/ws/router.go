package ws

import (
	"context"
	"strings"
	"time"

	"Paddlers/internal/shared/logs"
	"Paddlers/internal/shared/transport"
	"Paddlers/modules/kit/logx"
)

type HandlerFunc func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp)

// Middleware 包一层 handler，按 Use 的顺序由外到内执行。
type Middleware func(next HandlerFunc) HandlerFunc

type Group struct {
	prefix string
	router *Router
}

// Handle 注册 "prefix.name"，同名覆盖。
func (g *Group) Handle(name string, h HandlerFunc) {
	g.router.routes[g.prefix+"."+name] = h
}

// Router 路由名固定两段 "组.处理器"，例如 village.snapshot。
type Router struct {
	routes map[string]HandlerFunc
	chain  []Middleware
	log    logx.Logger
}

func NewRouter(l logx.Logger) *Router {
	if l == nil {
		l = logx.NewZapLogger(logs.Logger())
	}
	return &Router{
		routes: make(map[string]HandlerFunc),
		log:    l,
	}
}

func (r *Router) Use(mw ...Middleware) {
	r.chain = append(r.chain, mw...)
}

func (r *Router) Group(prefix string) *Group {
	return &Group{prefix: prefix, router: r}
}

func (r *Router) Dispatch(req *WsMsgReq, resp *WsMsgResp) {
	if resp == nil || resp.Body == nil {
		return
	}
	// 先置系统错误，handler 漏设时不会被当成成功
	resp.Body.Code = transport.SystemError
	resp.Body.Msg = nil

	name := ""
	if req != nil && req.Body != nil {
		name = req.Body.Name
	}
	ctx := transport.NewContext("WS "+name, "ws")
	defer func() {
		transport.SetBizCode(ctx, transport.BizCode(resp.Body.Code))
		transport.WriteAccessLog(ctx, r.log)
	}()

	if name == "" {
		fail(resp, transport.InvalidParam, "参数有误")
		return
	}
	if pid := connPlayer(req.Conn); pid != 0 {
		transport.SetPlayer(ctx, pid)
	}
	if req.Conn != nil {
		if vid, ok := req.Conn.GetProperty(ConnKeyTopic).(int64); ok {
			transport.SetVillage(ctx, vid)
		}
	}
	h, msg := r.lookup(name)
	if h == nil {
		fail(resp, transport.InvalidParam, msg)
		return
	}
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](h)
	}
	h(ctx, req, resp)
}

func (r *Router) lookup(name string) (HandlerFunc, string) {
	prefix, handler, ok := strings.Cut(name, ".")
	if !ok || prefix == "" || handler == "" || strings.Contains(handler, ".") {
		return nil, "路由参数有误"
	}
	h := r.routes[name]
	if h == nil {
		return nil, "路由不存在"
	}
	return h, ""
}

func connPlayer(c WSConn) int64 {
	if c == nil {
		return 0
	}
	pid, _ := c.GetProperty(ConnKeyPlayer).(int64)
	return pid
}

func fail(resp *WsMsgResp, code int, msg string) {
	resp.Body.Code = code
	resp.Body.Msg = msg
}

// RateLimit 按连接上的玩家限流，与 HTTP 指令共用一个 limiter。
func RateLimit(l *transport.PlayerLimiter) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
			if !l.Allow(connPlayer(req.Conn), time.Now()) {
				fail(resp, transport.TooManyRequests, "too many requests")
				return
			}
			next(ctx, req, resp)
		}
	}
}
