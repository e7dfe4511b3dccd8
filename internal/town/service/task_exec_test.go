package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
)

func TestFinishTask_走路移动工人并给出下一个事件(t *testing.T) {
	f := newFixture(t)
	w := f.worker(0, 3, 1, 0)
	walkTask := f.task(w.ID, domain.Walk, 4, 3, t0)
	idle := f.task(w.ID, domain.Idle, 4, 3, t0.Add(4*time.Second))
	third := f.task(w.ID, domain.Walk, 4, 5, t0.Add(10*time.Second))

	next, err := f.town.FinishTask(f.ctx, walkTask.ID, t0.Add(4*time.Second))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, event.WorkerTask(idle.ID), next.Event)
	assert.Equal(t, third.StartTime, next.At)

	got, err := f.store.Worker(f.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TileIndex{X: 4, Y: 3}, got.Pos())

	_, err = f.store.Task(f.ctx, walkTask.ID)
	assert.Error(t, err)
}

func TestFinishTask_已经执行过(t *testing.T) {
	f := newFixture(t)
	next, err := f.town.FinishTask(f.ctx, 12345, t0)
	assert.NoError(t, err)
	assert.Nil(t, next)
}

func TestFinishTask_队列最后一个任务没有后续(t *testing.T) {
	f := newFixture(t)
	w := f.worker(0, 3, 1, 0)
	a := f.task(w.ID, domain.Idle, 0, 3, t0)
	f.task(w.ID, domain.Idle, 0, 3, t0.Add(time.Second))

	next, err := f.town.FinishTask(f.ctx, a.ID, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestFinishTask_欢迎技能生效(t *testing.T) {
	f := newFixture(t)
	h := domain.Hobo{VillageID: f.village.ID, HP: 3, Speed: 0.1}
	require.NoError(t, f.store.InsertHobo(f.ctx, &h))
	w := f.worker(1, 3, 1, 12)
	task := f.store.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.WelcomeAbility, X: 1, Y: 3, StartTime: t0, TargetHoboID: &h.ID})

	now := t0.Add(time.Second)
	_, err := f.town.FinishTask(f.ctx, task.ID, now)
	require.NoError(t, err)

	effects, err := f.store.EffectsOnHobo(f.ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, domain.AttrHealth, effects[0].Attribute)
	assert.Equal(t, 1, effects[0].Strength)

	got, err := f.store.Worker(f.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, *got.Mana)

	ab, err := f.store.WorkerAbility(f.ctx, w.ID, domain.Welcome)
	require.NoError(t, err)
	require.NotNil(t, ab.LastUsed)
	assert.Equal(t, now, *ab.LastUsed)
}

func TestFinishTask_领取礼物(t *testing.T) {
	f := newFixture(t)
	b := f.building(domain.PresentA, 2, 2, t0.Add(-time.Hour))
	w := f.worker(2, 2, 1, 0)
	task := f.task(w.ID, domain.CollectReward, 2, 2, t0)

	_, err := f.town.FinishTask(f.ctx, task.ID, t0)
	require.NoError(t, err)

	got, err := f.store.Worker(f.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 0, got.Exp)

	_, err = f.store.BuildingAt(f.ctx, f.village.ID, b.X, b.Y)
	assert.Error(t, err, "礼物领取后消失")
}

func TestExecutor_分派事件(t *testing.T) {
	f := newFixture(t)
	ex := NewExecutor(f.town)
	ctx := context.Background()

	next, err := ex.Execute(ctx, event.TimedEvent{At: t0, Event: event.PayTaxes()}, t0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, event.PayTaxes(), next.Event)
	assert.Equal(t, NextTaxCollection(t0, time.UTC), next.At)

	a, _ := f.attack(t0, 1)
	next, err = ex.Execute(ctx, event.TimedEvent{At: t0, Event: event.AttackArrival(a.ID)}, t0)
	require.NoError(t, err)
	require.NotNil(t, next, "没到结算时刻就改期")
	assert.Equal(t, t0.Add(90*time.Second+time.Microsecond), next.At)

	// 恰好在触发时刻仍未结算，改期必须落在 now 之后
	trigger := t0.Add(90 * time.Second)
	next, err = ex.Execute(ctx, event.TimedEvent{At: trigger, Event: event.AttackArrival(a.ID)}, trigger)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.At.After(trigger))

	next, err = ex.Execute(ctx, event.TimedEvent{At: t0, Event: event.AttackArrival(a.ID)}, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, next)

	_, err = ex.Execute(ctx, event.TimedEvent{At: t0, Event: event.Event{Kind: 42}}, t0)
	assert.Error(t, err)
}
