package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-think/openssl"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Paddlers/internal/shared/security"
	"Paddlers/modules/kit/logx"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMsgSize = 64 << 10
	padding    = openssl.PKCS7_PADDING
)

// WsServer 一条 websocket 连接：读协程解帧分发，写协程串行发送。
// 帧格式：json -> AES-CBC（握手下发的 key，未开启加密时跳过）-> gzip，二进制帧。
type WsServer struct {
	id       string
	conn     *websocket.Conn
	router   *Router
	outChan  chan *RespBody
	property map[string]any
	sync.RWMutex
	encrypt   bool
	done      chan struct{}
	closeOnce sync.Once
	log       logx.Logger
}

func NewWsServer(wsConn *websocket.Conn, outBuffer int, encrypt bool, l logx.Logger) *WsServer {
	if outBuffer <= 0 {
		outBuffer = 256
	}
	if l == nil {
		l = logx.Nop()
	}
	id := uuid.NewString()
	return &WsServer{
		id:       id,
		conn:     wsConn,
		outChan:  make(chan *RespBody, outBuffer),
		property: make(map[string]any),
		encrypt:  encrypt,
		done:     make(chan struct{}),
		log:      l.With(zap.String("conn_id", id)),
	}
}

func (s *WsServer) ID() string {
	return s.id
}

func (s *WsServer) Router(router *Router) {
	s.router = router
}

func (s *WsServer) SetProperty(key string, value any) {
	s.Lock()
	defer s.Unlock()
	s.property[key] = value
}

func (s *WsServer) GetProperty(key string) any {
	s.RLock()
	defer s.RUnlock()
	return s.property[key]
}

func (s *WsServer) Addr() string {
	return s.conn.RemoteAddr().String()
}

func (s *WsServer) Push(name string, data any) bool {
	return s.enqueue(&RespBody{Name: name, Msg: data})
}

func (s *WsServer) enqueue(body *RespBody) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outChan <- body:
		return true
	default:
		s.log.Warn("ws push dropped, buffer full", zap.String("name", body.Name))
		return false
	}
}

// Run 先发握手再启动读写协程。
func (s *WsServer) Run() {
	s.handshake()
	go s.readMsgLoop()
	go s.writeMsgLoop()
}

func (s *WsServer) key() []byte {
	if !s.encrypt {
		return nil
	}
	k, _ := s.GetProperty(SecretKey).(string)
	return []byte(k)
}

func (s *WsServer) readMsgLoop() {
	defer func() {
		if err := recover(); err != nil {
			s.log.Error("ws readMsgLoop panic", zap.String("err", fmt.Sprintf("%v", err)))
		}
		s.Close()
	}()
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("ws read msg", zap.Error(err))
			}
			return
		}

		plain, err := Decode(data, s.key())
		if err != nil {
			s.log.Warn("ws decode frame", zap.Error(err))
			continue
		}
		var reqBody ReqBody
		if err = json.Unmarshal(plain, &reqBody); err != nil {
			s.log.Warn("ws unmarshal frame", zap.Error(err))
			continue
		}

		resp := WsMsgResp{Body: &RespBody{Seq: reqBody.Seq, Name: reqBody.Name}}
		if reqBody.Name == HeartbeatMsg {
			h := &Heartbeat{}
			_ = mapstructure.Decode(reqBody.Msg, h)
			h.STime = time.Now().UnixMilli()
			resp.Body.Msg = h
		} else if s.router != nil {
			s.router.Dispatch(&WsMsgReq{Body: &reqBody, Conn: s}, &resp)
		}
		s.enqueue(resp.Body)
	}
}

func (s *WsServer) writeMsgLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case body := <-s.outChan:
			if err := s.write(body); err != nil {
				s.log.Warn("ws write", zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *WsServer) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.done)
	})
}

func (s *WsServer) Done() <-chan struct{} {
	return s.done
}

func (s *WsServer) write(body *RespBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	frame, err := Encode(raw, s.key())
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// handshake 下发本连接的密钥，握手帧本身只压缩不加密。
func (s *WsServer) handshake() {
	hs := &Handshake{}
	if s.encrypt {
		hs.Key = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		s.SetProperty(SecretKey, hs.Key)
	}
	raw, err := json.Marshal(&RespBody{Name: HandshakeMsg, Msg: hs})
	if err != nil {
		s.log.Error("ws handshake marshal", zap.Error(err))
		return
	}
	frame, err := Encode(raw, nil)
	if err != nil {
		s.log.Error("ws handshake zip", zap.Error(err))
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		s.log.Warn("ws handshake write", zap.Error(err))
	}
}

// Encode key 为空时只压缩。
func Encode(plain, key []byte) ([]byte, error) {
	data := plain
	if len(key) > 0 {
		enc, err := security.AesCBCEncrypt(plain, key, padding)
		if err != nil {
			return nil, err
		}
		data = enc
	}
	return security.Zip(data)
}

func Decode(frame, key []byte) ([]byte, error) {
	data, err := security.UnZip(frame)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return data, nil
	}
	return security.AesCBCDecrypt(data, key, padding)
}
