package ws

import (
	"sync"
)

// Hub 按主题（村庄 id）分组的在线连接，向同一主题的全部连接广播。
type Hub struct {
	mu     sync.RWMutex
	topics map[int64]map[string]WSConn
}

func NewHub() *Hub {
	return &Hub{topics: make(map[int64]map[string]WSConn)}
}

// Join 连接关闭后自动退出。
func (h *Hub) Join(topic int64, c WSConn) {
	h.mu.Lock()
	conns := h.topics[topic]
	if conns == nil {
		conns = make(map[string]WSConn)
		h.topics[topic] = conns
	}
	conns[c.ID()] = c
	h.mu.Unlock()

	go func() {
		<-c.Done()
		h.Leave(topic, c.ID())
	}()
}

func (h *Hub) Leave(topic int64, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.topics[topic]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(h.topics, topic)
	}
}

func (h *Hub) Count(topic int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast 返回成功入队的连接数。
func (h *Hub) Broadcast(topic int64, name string, payload any) int {
	h.mu.RLock()
	targets := make([]WSConn, 0, len(h.topics[topic]))
	for _, c := range h.topics[topic] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range targets {
		if c.Push(name, payload) {
			n++
		}
	}
	return n
}
