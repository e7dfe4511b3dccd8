package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/shared/transport"
	"Paddlers/modules/kit/logx"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	pushed []string
	props  map[string]any
	done   chan struct{}
	full   bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, props: map[string]any{}, done: make(chan struct{})}
}

func (c *fakeConn) ID() string { return c.id }
func (c *fakeConn) SetProperty(k string, v any) { c.props[k] = v }
func (c *fakeConn) GetProperty(k string) any { return c.props[k] }
func (c *fakeConn) Addr() string { return "fake" }
func (c *fakeConn) Close() { close(c.done) }
func (c *fakeConn) Done() <-chan struct{} { return c.done }
func (c *fakeConn) Push(name string, _ any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.pushed = append(c.pushed, name)
	return true
}

func TestHub_广播与离开(t *testing.T) {
	h := NewHub()
	a, b, other := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	h.Join(1, a)
	h.Join(1, b)
	h.Join(2, other)
	b.full = true

	assert.Equal(t, 1, h.Broadcast(1, "resources", nil))
	assert.Equal(t, []string{"resources"}, a.pushed)
	assert.Empty(t, other.pushed)

	a.Close()
	require.Eventually(t, func() bool { return h.Count(1) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRouter_分发(t *testing.T) {
	r := NewRouter(logx.Nop())
	r.Group("village").Handle("echo", func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
		resp.Body.Code = transport.OK
		resp.Body.Msg = req.Body.Msg
	})

	call := func(name string) *RespBody {
		resp := &WsMsgResp{Body: &RespBody{Name: name}}
		r.Dispatch(&WsMsgReq{Body: &ReqBody{Name: name, Msg: "hi"}, Conn: newFakeConn("x")}, resp)
		return resp.Body
	}
	assert.Equal(t, transport.OK, call("village.echo").Code)
	assert.Equal(t, "hi", call("village.echo").Msg)
	assert.Equal(t, transport.InvalidParam, call("village").Code)
	assert.Equal(t, transport.InvalidParam, call("village.nope").Code)
	assert.Equal(t, transport.InvalidParam, call("a.b.c").Code)
}

func TestBindJSON_宽松解码(t *testing.T) {
	var dst struct {
		X    int    `json:"x"`
		Name string `json:"name"`
	}
	err := BindJSON(&WsMsgReq{Body: &ReqBody{Msg: map[string]any{"x": float64(3), "name": "n"}}}, &dst)
	require.NoError(t, err)
	assert.Equal(t, 3, dst.X)
	assert.Equal(t, "n", dst.Name)

	assert.Error(t, BindJSON(&WsMsgReq{Body: &ReqBody{}}, &dst))
}

func TestEncodeDecode(t *testing.T) {
	key := []byte("abcdef0123456789")
	frame, err := Encode([]byte(`{"seq":1}`), key)
	require.NoError(t, err)
	plain, err := Decode(frame, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":1}`, string(plain))

	_, err = Decode([]byte("not a frame"), key)
	assert.Error(t, err)
}

// 真实连接：握手拿 key，心跳原样带回 ctime，推送能收到。
func TestServer_握手心跳与推送(t *testing.T) {
	hub := NewHub()
	srv := NewServer(NewRouter(logx.Nop()), 8, true, logx.Nop())
	joined := make(chan *WsServer, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := srv.Upgrade(w, r, map[string]any{ConnKeyTopic: int64(5)})
		if err == nil {
			hub.Join(5, c)
			joined <- c
		}
	}))
	defer ts.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	read := func(key []byte) RespBody {
		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := client.ReadMessage()
		require.NoError(t, err)
		plain, err := Decode(data, key)
		require.NoError(t, err)
		var body RespBody
		require.NoError(t, json.Unmarshal(plain, &body))
		return body
	}

	hs := read(nil)
	require.Equal(t, HandshakeMsg, hs.Name)
	key := []byte(hs.Msg.(map[string]any)["key"].(string))
	require.Len(t, key, 16)

	raw, _ := json.Marshal(ReqBody{Seq: 9, Name: HeartbeatMsg, Msg: map[string]any{"ctime": 123}})
	frame, err := Encode(raw, key)
	require.NoError(t, err)
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, frame))

	hb := read(key)
	assert.Equal(t, int64(9), hb.Seq)
	assert.EqualValues(t, 123, hb.Msg.(map[string]any)["ctime"])

	<-joined
	assert.Equal(t, 1, hub.Broadcast(5, "resources", map[string]int{"sticks": 1}))
	push := read(key)
	assert.Equal(t, "resources", push.Name)
}

func TestRouter_中间件与限流(t *testing.T) {
	r := NewRouter(logx.Nop())
	var order []string
	r.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
			order = append(order, "outer")
			next(ctx, req, resp)
		}
	}, RateLimit(transport.NewPlayerLimiter(1, 1)))
	r.Group("village").Handle("ping", func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
		order = append(order, "handler")
		resp.Body.Code = transport.OK
	})

	conn := newFakeConn("p")
	conn.SetProperty(ConnKeyPlayer, int64(7))
	call := func() int {
		resp := &WsMsgResp{Body: &RespBody{}}
		r.Dispatch(&WsMsgReq{Body: &ReqBody{Name: "village.ping"}, Conn: conn}, resp)
		return resp.Body.Code
	}
	assert.Equal(t, transport.OK, call())
	assert.Equal(t, transport.TooManyRequests, call())
	assert.Equal(t, []string{"outer", "handler", "outer"}, order)
}
