package ws

type ReqBody struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Msg  any    `json:"msg"`
}

type RespBody struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Code int    `json:"code"`
	Msg  any    `json:"msg"`
}

type WsMsgReq struct {
	Body *ReqBody
	Conn WSConn
}

type WsMsgResp struct {
	Body *RespBody
}

// WSConn 一条客户端连接，handler 通过属性读写连接上的会话信息。
type WSConn interface {
	ID() string
	SetProperty(key string, value any)
	GetProperty(key string) any
	Addr() string
	// Push 服务端主动推送，缓冲满时丢弃并返回 false。
	Push(name string, data any) bool
	Close()
	// Done 连接关闭时关闭。
	Done() <-chan struct{}
}

type Handshake struct {
	Key string `json:"key"`
}

type Heartbeat struct {
	CTime int64 `json:"ctime" mapstructure:"ctime"`
	STime int64 `json:"stime" mapstructure:"stime"`
}

const (
	HandshakeMsg  = "handshake"
	HeartbeatMsg  = "heartbeat"
	SecretKey     = "secretKey"
	ConnKeyPlayer = "player_id"
	ConnKeyTopic  = "village_id"
)
