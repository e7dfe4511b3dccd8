package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// 事务期间事务外的写入在提交后仍然保留，事务内的改动也写回。
func TestWithTx_提交只合并改动(t *testing.T) {
	ctx := context.Background()
	r := NewTownRepository()
	v := r.AddVillage(domain.Village{})
	r.SetResource(v.ID, domain.Sticks, 10)
	r.SetResource(v.ID, domain.Logs, 10)
	gone := domain.Hobo{VillageID: v.ID, HP: 1}
	require.NoError(t, r.InsertHobo(ctx, &gone))

	var outside, inside domain.Hobo
	err := r.WithTx(ctx, func(tx port.TownStore) error {
		outside = domain.Hobo{VillageID: v.ID, HP: 2}
		require.NoError(t, r.InsertHobo(ctx, &outside))
		require.NoError(t, r.AdjustResource(ctx, v.ID, domain.Logs, 5))

		inside = domain.Hobo{VillageID: v.ID, HP: 3}
		if err := tx.InsertHobo(ctx, &inside); err != nil {
			return err
		}
		if err := tx.DeleteHobo(ctx, gone.ID); err != nil {
			return err
		}
		return tx.AdjustResource(ctx, v.ID, domain.Sticks, -4)
	})
	require.NoError(t, err)

	assert.NotEqual(t, outside.ID, inside.ID, "事务内外共用 id 计数")
	_, err = r.Hobo(ctx, outside.ID)
	assert.NoError(t, err, "事务外插入的访客还在")
	_, err = r.Hobo(ctx, inside.ID)
	assert.NoError(t, err)
	_, err = r.Hobo(ctx, gone.ID)
	assert.Error(t, err)

	sticks, err := r.Resource(ctx, v.ID, domain.Sticks)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sticks)
	logs, err := r.Resource(ctx, v.ID, domain.Logs)
	require.NoError(t, err)
	assert.Equal(t, int64(15), logs, "事务外的加减没有被快照覆盖")
}

func TestWithTx_失败回滚(t *testing.T) {
	ctx := context.Background()
	r := NewTownRepository()
	v := r.AddVillage(domain.Village{})
	r.SetResource(v.ID, domain.Feathers, 3)

	boom := errors.New("boom")
	err := r.WithTx(ctx, func(tx port.TownStore) error {
		require.NoError(t, tx.AdjustResource(ctx, v.ID, domain.Feathers, -3))
		require.NoError(t, r.AdjustResource(ctx, v.ID, domain.Logs, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	feathers, err := r.Resource(ctx, v.ID, domain.Feathers)
	require.NoError(t, err)
	assert.Equal(t, int64(3), feathers)
	logs, err := r.Resource(ctx, v.ID, domain.Logs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), logs)
}

func TestCountActiveTasks_同刻取后插入的(t *testing.T) {
	ctx := context.Background()
	r := NewTownRepository()
	v := r.AddVillage(domain.Village{})
	w := r.AddWorker(domain.Worker{VillageID: v.ID, Speed: 1, Level: 1})
	r.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.GatherSticks, StartTime: t0})
	r.AddTask(domain.Task{WorkerID: w.ID, TaskType: domain.Walk, StartTime: t0})

	n, err := r.CountActiveTasks(ctx, v.ID, domain.GatherSticks, t0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = r.CountActiveTasks(ctx, v.ID, domain.Walk, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
