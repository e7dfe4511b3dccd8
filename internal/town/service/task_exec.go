package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
	"Paddlers/internal/town/townmap"
)

// Executor 把到期事件落到存储上，返回需要再次入队的后续事件。
type Executor struct {
	town *Town
}

func NewExecutor(t *Town) *Executor {
	return &Executor{town: t}
}

func (e *Executor) Execute(ctx context.Context, ev event.TimedEvent, now time.Time) (*event.TimedEvent, error) {
	switch ev.Event.Kind {
	case event.KindWorkerTask:
		return e.town.FinishTask(ctx, ev.Event.ID, now)
	case event.KindAttackArrival:
		out, err := e.town.ResolveAttack(ctx, ev.Event.ID, now)
		if err != nil {
			return nil, err
		}
		// 触发时刻本身还不能结算，排到它之后，否则同一轮 Advance 会反复弹出
		if out.Pending {
			return &event.TimedEvent{At: out.TriggerAt.Add(time.Microsecond), Event: ev.Event}, nil
		}
		return nil, nil
	case event.KindPayTaxes:
		if _, err := e.town.RunTaxCollection(ctx, e.town.TaxSeed(), now); err != nil {
			return nil, err
		}
		return &event.TimedEvent{At: e.town.NextTaxAt(now), Event: ev.Event}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %s", ev.Event.Kind)
	}
}

// FinishTask 结算一个任务：模拟结束、应用效果、删除任务，然后给出工人下一次结算的事件。
// 任务已不存在说明执行过了，直接返回。
func (s *Town) FinishTask(ctx context.Context, taskID int64, now time.Time) (*event.TimedEvent, error) {
	var (
		next      *event.TimedEvent
		villageID int64
		done      bool
	)
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		task, err := tx.Task(ctx, taskID)
		if err != nil {
			if errors.Is(err, app.ErrNotFound) {
				return nil
			}
			return err
		}
		w, err := tx.Worker(ctx, task.WorkerID)
		if err != nil {
			if errors.Is(err, app.ErrNotFound) {
				return app.ErrDataInconsistency.WithMsg("task references missing worker").
					WithDataMap(map[string]any{"task_id": task.ID, "worker_id": task.WorkerID}).WithCause(err)
			}
			return err
		}
		villageID = w.VillageID

		view, err := townmap.Load(ctx, tx, w.VillageID, now)
		if err != nil {
			return err
		}
		s.finishOnView(ctx, view, w, task)
		if err := s.applyTask(ctx, tx, w, task, now); err != nil {
			return err
		}
		if err := tx.UpdateWorker(ctx, w); err != nil {
			return err
		}
		if err := tx.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
		done = true

		cur, nxt, err := tx.CurrentAndNextTask(ctx, w.ID)
		if err != nil {
			return err
		}
		if cur != nil && nxt != nil {
			next = &event.TimedEvent{At: nxt.StartTime, Event: event.WorkerTask(cur.ID)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if done {
		s.notifier.Notify(villageID, "task", map[string]any{"finished": taskID})
	}
	return next, nil
}

// finishOnView 结束任务对村庄状态的影响。状态对不上只记日志，任务照常结束，避免工人卡死在队列里。
func (s *Town) finishOnView(ctx context.Context, view *townmap.TownView, w *domain.Worker, task *domain.Task) {
	l := s.log.WithContext(ctx).With(zap.Int64("task_id", task.ID), zap.String("task_type", string(task.TaskType)))
	switch task.TaskType {
	case domain.Walk:
		if !view.PathWalkable(w.Pos(), task.Pos()) {
			l.Warn("walk path blocked at finish", zap.Stringer("from", w.Pos()), zap.Stringer("to", task.Pos()))
		}
		w.X, w.Y = task.X, task.Y
	case domain.GatherSticks, domain.ChopTree:
		if err := view.State.RegisterTaskEnd(task.TaskType); err != nil {
			l.Warn("forest usage out of sync", zap.Error(err))
		}
		if ts, ok := view.State.Get(task.Pos()); ok {
			if err := ts.TryRemoveEntity(); err != nil {
				l.Warn("building occupancy out of sync", zap.Error(err))
			}
		}
	case domain.CollectReward:
		view.State.Remove(task.Pos())
	}
}

// applyTask 任务完成后写入存储的效果。
func (s *Town) applyTask(ctx context.Context, tx port.TownStore, w *domain.Worker, task *domain.Task, now time.Time) error {
	switch task.TaskType {
	case domain.WelcomeAbility:
		stats := domain.Welcome.Stats()
		if task.TargetHoboID != nil {
			e := &domain.Effect{
				HoboID:    *task.TargetHoboID,
				Attribute: stats.Attribute,
				Strength:  stats.Strength,
				StartTime: now,
			}
			if err := tx.InsertEffect(ctx, e); err != nil {
				return err
			}
		} else {
			s.log.WithContext(ctx).Warn("welcome ability without target", zap.Int64("task_id", task.ID))
		}
		if err := tx.RecordAbilityUse(ctx, w.ID, domain.Welcome, now); err != nil {
			return err
		}
		if w.Mana != nil {
			m := *w.Mana - stats.ManaCost
			if m < 0 {
				m = 0
			}
			w.Mana = &m
		}
	case domain.CollectReward:
		b, err := tx.BuildingAt(ctx, w.VillageID, task.X, task.Y)
		if err != nil {
			if errors.Is(err, app.ErrNotFound) {
				s.log.WithContext(ctx).Warn("no reward to collect", zap.Stringer("pos", task.Pos()))
				return nil
			}
			return err
		}
		st, ok := building.Get(b.Type)
		if !ok || st.RewardExp == nil {
			s.log.WithContext(ctx).Warn("building is not a reward", zap.String("type", string(b.Type)))
			return nil
		}
		w.AddExp(*st.RewardExp)
		return tx.DeleteBuilding(ctx, b.ID)
	}
	return nil
}
