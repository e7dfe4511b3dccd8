package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
	"Paddlers/internal/town/infra/persistence/memory"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type scriptedExecutor struct {
	ran    []event.Event
	follow map[event.Event]*event.TimedEvent
	fail   map[event.Event]bool
}

func (e *scriptedExecutor) Execute(ctx context.Context, ev event.TimedEvent, now time.Time) (*event.TimedEvent, error) {
	e.ran = append(e.ran, ev.Event)
	if e.fail[ev.Event] {
		return nil, errors.New("boom")
	}
	return e.follow[ev.Event], nil
}

func TestAdvance_到期后续事件同批执行(t *testing.T) {
	ex := &scriptedExecutor{follow: map[event.Event]*event.TimedEvent{
		event.WorkerTask(1): {At: t0.Add(2 * time.Second), Event: event.WorkerTask(2)},
		event.WorkerTask(2): {At: t0.Add(time.Hour), Event: event.WorkerTask(3)},
	}}
	s := New(ex, logx.Nop())
	s.Add(event.WorkerTask(1), t0)

	n := s.Advance(context.Background(), t0.Add(5*time.Second))
	assert.Equal(t, 2, n)
	assert.Equal(t, []event.Event{event.WorkerTask(1), event.WorkerTask(2)}, ex.ran)

	next, ok := s.NextTime()
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Hour), next)
}

func TestAdvance_失败的事件被丢弃(t *testing.T) {
	ex := &scriptedExecutor{fail: map[event.Event]bool{event.WorkerTask(1): true}}
	s := New(ex, logx.Nop())
	s.Add(event.WorkerTask(1), t0)
	s.Add(event.WorkerTask(2), t0)

	assert.Equal(t, 2, s.Advance(context.Background(), t0))
	assert.Equal(t, 0, s.Len())
}

func TestAdvance_未到期不执行(t *testing.T) {
	ex := &scriptedExecutor{}
	s := New(ex, logx.Nop())
	s.Add(event.PayTaxes(), t0.Add(time.Second))

	assert.Equal(t, 0, s.Advance(context.Background(), t0))
	assert.Empty(t, ex.ran)
}

func TestBootstrap_按任务队列补种事件(t *testing.T) {
	store := memory.NewTownRepository()
	pid := store.AddPlayer(domain.Player{}).ID
	v := store.AddVillage(domain.Village{PlayerID: &pid})
	other := store.AddVillage(domain.Village{})

	w := store.AddWorker(domain.Worker{VillageID: v.ID, Speed: 1, Level: 1})
	cur := store.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.Idle, StartTime: t0})
	next := store.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.Idle, StartTime: t0.Add(time.Minute)})
	lonely := store.AddWorker(domain.Worker{VillageID: v.ID, Speed: 1, Level: 1})
	store.AddTask(domain.Task{WorkerID: lonely.ID, TaskType: domain.Idle, StartTime: t0})
	foreign := store.AddWorker(domain.Worker{VillageID: other.ID, Speed: 1, Level: 1})
	store.AddTask(domain.Task{WorkerID: foreign.ID, TaskType: domain.Idle, StartTime: t0})
	store.AddTask(domain.Task{WorkerID: foreign.ID, TaskType: domain.Idle, StartTime: t0.Add(time.Second)})

	s := New(&scriptedExecutor{}, logx.Nop())
	err := s.Bootstrap(context.Background(), store, BootstrapOptions{
		Owns:      func(id int64) bool { return id == v.ID },
		WithTaxes: true,
		TaxAt:     t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	ev, ok := s.queue.Poll(t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, event.WorkerTask(cur.ID), ev.Event)
	assert.Equal(t, next.StartTime, ev.At)
}

// 端到端：提交任务后推进时钟，工人走到终点。
func TestScheduler_驱动任务执行(t *testing.T) {
	store := memory.NewTownRepository()
	pid := store.AddPlayer(domain.Player{}).ID
	v := store.AddVillage(domain.Village{PlayerID: &pid})
	w := store.AddWorker(domain.Worker{VillageID: v.ID, X: 0, Y: 3, Speed: 1, Level: 1})
	store.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.Idle, X: 0, Y: 3, StartTime: t0.Add(-time.Minute)})

	clock := &domain.FixedClock{T: t0}
	town := service.NewTown(store, clock, logx.Nop())
	s := New(service.NewExecutor(town), logx.Nop())

	res, err := town.SubmitTaskList(context.Background(), w.ID, []domain.Job{
		{TaskType: domain.Walk, X: 4, Y: 3},
		{TaskType: domain.Idle, X: 4, Y: 3},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Follow)
	s.Add(res.Follow.Event, res.Follow.At)

	n := s.Advance(context.Background(), t0.Add(10*time.Second))
	assert.Equal(t, 2, n)

	got, err := store.Worker(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TileIndex{X: 4, Y: 3}, got.Pos())

	queue, err := store.WorkerTasks(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, domain.Idle, queue[0].TaskType)
}

// 进攻事件走真实的结算：没到时刻就改期，改期必须落在 now 之后，不能在一次 Advance 里空转。
func TestScheduler_进攻到达(t *testing.T) {
	cases := []struct {
		name string
		// now 相对触发时刻的偏移
		offset time.Duration
	}{
		{"触发前一秒", -time.Second},
		{"恰好触发时刻", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewTownRepository()
			pid := store.AddPlayer(domain.Player{}).ID
			v := store.AddVillage(domain.Village{PlayerID: &pid})

			h := domain.Hobo{VillageID: v.ID, HP: 1, Speed: 0.1, Hurried: true}
			require.NoError(t, store.InsertHobo(ctx, &h))
			a := domain.Attack{Departure: t0.Add(-time.Minute), Arrival: t0, DestinationVillageID: v.ID}
			require.NoError(t, store.InsertAttack(ctx, &a, []int64{h.ID}))

			town := service.NewTown(store, &domain.FixedClock{T: t0}, logx.Nop())
			s := New(service.NewExecutor(town), logx.Nop())
			s.Add(event.AttackArrival(a.ID), t0)

			trigger := t0.Add(service.FightDuration([]domain.Hobo{h}))
			runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			assert.Equal(t, 1, s.Advance(runCtx, trigger.Add(c.offset)))
			require.NoError(t, runCtx.Err())

			next, ok := s.NextTime()
			require.True(t, ok)
			assert.True(t, next.After(trigger), "改期到触发时刻之后")

			assert.Equal(t, 1, s.Advance(ctx, next))
			assert.Equal(t, 0, s.Len())
			_, err := store.Attack(ctx, a.ID)
			assert.Error(t, err, "结算后进攻删除")
		})
	}
}
