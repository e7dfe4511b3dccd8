package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Paddlers/modules/kit/logx"
)

// Server 负责 HTTP 升级并创建连接。
type Server struct {
	router    *Router
	outBuffer int
	encrypt   bool
	upgrader  websocket.Upgrader
	log       logx.Logger
}

func NewServer(r *Router, outBuffer int, encrypt bool, l logx.Logger) *Server {
	if l == nil {
		l = logx.Nop()
	}
	return &Server{
		router:    r,
		outBuffer: outBuffer,
		encrypt:   encrypt,
		upgrader: websocket.Upgrader{
			// 客户端跨域来源不做限制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: l,
	}
}

// Upgrade 升级并启动连接；props 在握手之前写入连接属性。
func (s *Server) Upgrade(w http.ResponseWriter, req *http.Request, props map[string]any) (*WsServer, error) {
	wsConn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return nil, err
	}
	conn := NewWsServer(wsConn, s.outBuffer, s.encrypt, s.log)
	for k, v := range props {
		conn.SetProperty(k, v)
	}
	conn.Router(s.router)
	conn.Run()
	s.log.Info("websocket connected", zap.String("conn_id", conn.ID()), zap.String("addr", conn.Addr()))
	return conn, nil
}
