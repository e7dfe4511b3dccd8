package event

import (
	"fmt"
	"time"
)

// Kind 的声明顺序就是同一时刻事件的执行顺序。
type Kind uint8

const (
	KindWorkerTask Kind = iota + 1
	KindAttackArrival
	KindPayTaxes
)

func (k Kind) String() string {
	switch k {
	case KindWorkerTask:
		return "worker_task"
	case KindAttackArrival:
		return "attack_arrival"
	case KindPayTaxes:
		return "pay_taxes"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event 待执行的动作。ID 按 Kind 分别是 task id、attack id，PayTaxes 不用。
type Event struct {
	Kind Kind
	ID   int64
}

func WorkerTask(taskID int64) Event     { return Event{Kind: KindWorkerTask, ID: taskID} }
func AttackArrival(attackID int64) Event { return Event{Kind: KindAttackArrival, ID: attackID} }
func PayTaxes() Event                    { return Event{Kind: KindPayTaxes} }

func (e Event) Less(o Event) bool {
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	return e.ID < o.ID
}

func (e Event) String() string {
	if e.Kind == KindPayTaxes {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s{%d}", e.Kind, e.ID)
}

type TimedEvent struct {
	At    time.Time
	Event Event
}

func (t TimedEvent) Less(o TimedEvent) bool {
	if !t.At.Equal(o.At) {
		return t.At.Before(o.At)
	}
	return t.Event.Less(o.Event)
}
