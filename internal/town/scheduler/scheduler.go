package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
	"Paddlers/modules/kit/logx"
)

// Executor 执行一个到期事件，返回可选的后续事件。
type Executor interface {
	Execute(ctx context.Context, ev event.TimedEvent, now time.Time) (*event.TimedEvent, error)
}

// Scheduler 独占一个事件队列，由单个 goroutine（SchedulerActor）驱动，不做并发保护。
type Scheduler struct {
	queue    *event.Queue
	executor Executor
	log      logx.Logger
}

func New(executor Executor, log logx.Logger) *Scheduler {
	if log == nil {
		log = logx.Nop()
	}
	return &Scheduler{queue: event.NewQueue(), executor: executor, log: log}
}

func (s *Scheduler) Add(ev event.Event, at time.Time) {
	s.queue.Add(ev, at)
}

func (s *Scheduler) Len() int {
	return s.queue.Len()
}

func (s *Scheduler) NextTime() (time.Time, bool) {
	return s.queue.NextTime()
}

// Advance 执行所有 At <= now 的事件，后续事件若也已到期在本次一并执行。返回执行的事件数。
// 单个事件失败只记录日志并丢弃，不影响后面的事件。
func (s *Scheduler) Advance(ctx context.Context, now time.Time) int {
	n := 0
	for {
		if ctx.Err() != nil {
			return n
		}
		ev, ok := s.queue.Poll(now)
		if !ok {
			return n
		}
		n++
		next, err := s.executor.Execute(ctx, ev, now)
		if err != nil {
			logx.ReportError(ctx, s.log, "execute_event", err,
				zap.Stringer("event", ev.Event), zap.Time("at", ev.At))
			continue
		}
		if next != nil {
			s.queue.Add(next.Event, next.At)
		}
	}
}

// BootstrapOptions 启动时要补种的事件。
type BootstrapOptions struct {
	// Owns 判断村庄是否归本分片，nil 表示全部
	Owns func(villageID int64) bool
	// WithTaxes 只有一个分片负责全服收税
	WithTaxes bool
	TaxAt     time.Time
}

// Bootstrap 从存储恢复队列：每个工人当前任务在下一个任务开始时结算，每个未结算的进攻排一个到达事件。
// 停机期间错过的事件不会回放，它们在启动后第一次 Advance 时立刻执行。
func (s *Scheduler) Bootstrap(ctx context.Context, r port.TownReader, opt BootstrapOptions) error {
	owns := opt.Owns
	if owns == nil {
		owns = func(int64) bool { return true }
	}
	workers, err := r.AllWorkers(ctx)
	if err != nil {
		return err
	}
	seeded := 0
	for _, w := range workers {
		if !owns(w.VillageID) {
			continue
		}
		cur, next, err := r.CurrentAndNextTask(ctx, w.ID)
		if err != nil {
			return err
		}
		if cur != nil && next != nil {
			s.Add(event.WorkerTask(cur.ID), next.StartTime)
			seeded++
		}
	}

	attacks, err := r.AllAttacks(ctx)
	if err != nil {
		return err
	}
	for _, a := range attacks {
		if !owns(a.DestinationVillageID) {
			continue
		}
		// 真正的结算时刻由执行器算，这里按到达时间入队
		s.Add(event.AttackArrival(a.ID), domain.Micro(a.Arrival))
		seeded++
	}

	if opt.WithTaxes {
		s.Add(event.PayTaxes(), opt.TaxAt)
		seeded++
	}
	s.log.WithContext(ctx).Info("scheduler bootstrapped", zap.Int("events", seeded))
	return nil
}
