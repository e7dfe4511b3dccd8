package event

import (
	"container/heap"
	"time"
)

type timedHeap []TimedEvent

func (h timedHeap) Len() int           { return len(h) }
func (h timedHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h timedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timedHeap) Push(x any)        { *h = append(*h, x.(TimedEvent)) }
func (h *timedHeap) Pop() any {
	old := *h
	ev := old[len(old)-1]
	*h = old[:len(old)-1]
	return ev
}

// Queue 按时间排序的事件队列，只归一个调度器所有，不做并发保护。
type Queue struct {
	h timedHeap
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(ev Event, at time.Time) {
	heap.Push(&q.h, TimedEvent{At: at, Event: ev})
}

// Poll 弹出最早且已到期（At <= now）的事件，不阻塞。
func (q *Queue) Poll(now time.Time) (TimedEvent, bool) {
	if len(q.h) == 0 || q.h[0].At.After(now) {
		return TimedEvent{}, false
	}
	return heap.Pop(&q.h).(TimedEvent), true
}

func (q *Queue) NextTime() (time.Time, bool) {
	if len(q.h) == 0 {
		return time.Time{}, false
	}
	return q.h[0].At, true
}

func (q *Queue) Len() int {
	return len(q.h)
}
