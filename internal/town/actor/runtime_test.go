package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/shared/transport"
	"Paddlers/internal/town/actors"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/memory"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/errx"
	"Paddlers/modules/kit/logx"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type world struct {
	rt      *Runtime
	store   *memory.TownRepository
	clock   *domain.FixedClock
	player  int64
	village int64
}

// newWorld 定时循环全部关闭，只靠显式请求推进。
func newWorld(t *testing.T, shards int) *world {
	t.Helper()
	store := memory.NewTownRepository()
	clock := &domain.FixedClock{T: t0}
	town := service.NewTown(store, clock, logx.Nop(), service.WithTaxSeed(func() int64 { return 7 }))
	p := store.AddPlayer(domain.Player{})
	pid := p.ID
	v := store.AddVillage(domain.Village{PlayerID: &pid})

	rt := NewRuntime(town, actors.Config{Shards: shards}, logx.Nop(), time.Second)
	t.Cleanup(rt.Shutdown)
	return &world{rt: rt, store: store, clock: clock, player: p.ID, village: v.ID}
}

func TestRuntime_提交任务并推进调度(t *testing.T) {
	w := newWorld(t, 2)
	ctx := context.Background()
	wk := w.store.AddWorker(domain.Worker{VillageID: w.village, X: 0, Y: 3, Speed: 1, Level: 1})

	res, err := w.rt.SubmitTaskList(ctx, w.player, w.village, wk.ID, []domain.Job{
		{TaskType: domain.Walk, X: 3, Y: 3},
		{TaskType: domain.Idle, X: 3, Y: 3},
	})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 2)
	require.NotNil(t, res.Follow)

	// ScheduleEvent 是 Send，用一次推进请求确认它已经入队
	w.clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		n, err := w.rt.AdvanceScheduler(ctx, time.Time{})
		return err == nil && n > 0
	}, time.Second, 10*time.Millisecond)

	snap, err := w.rt.Snapshot(ctx, w.player, w.village)
	require.NoError(t, err)
	require.Len(t, snap.Workers, 1)
	assert.Equal(t, domain.TileIndex{X: 3, Y: 3}, snap.Workers[0].Pos())
	require.Len(t, snap.Tasks[wk.ID], 1)
	assert.Equal(t, domain.Idle, snap.Tasks[wk.ID][0].TaskType)
}

func TestRuntime_不能操作别人的村庄(t *testing.T) {
	w := newWorld(t, 1)
	ctx := context.Background()

	_, err := w.rt.Snapshot(ctx, w.player+1, w.village)
	assert.True(t, errors.Is(err, app.ErrForbidden))
	assert.Equal(t, transport.Forbidden, CodeFromError(err))

	other := w.store.AddVillage(domain.Village{PlayerID: &w.player})
	wk := w.store.AddWorker(domain.Worker{VillageID: other.ID, Speed: 1, Level: 1})
	_, err = w.rt.SubmitTaskList(ctx, w.player, w.village, wk.ID, []domain.Job{{TaskType: domain.Idle}})
	assert.True(t, errors.Is(err, app.ErrForbidden), "工人不属于该村庄")
}

func TestRuntime_村庄不存在(t *testing.T) {
	w := newWorld(t, 1)
	_, err := w.rt.Snapshot(context.Background(), 0, 9999)
	assert.True(t, errors.Is(err, app.ErrNotFound))
	assert.Equal(t, transport.NotFound, CodeFromError(err))
}

func TestRuntime_购买与收税(t *testing.T) {
	w := newWorld(t, 1)
	ctx := context.Background()

	_, err := w.rt.PurchaseBuilding(ctx, w.player, w.village, domain.BlueFlowers, domain.TileIndex{X: 1, Y: 1})
	assert.Equal(t, transport.NotEnoughResource, CodeFromError(err))

	w.store.SetResource(w.village, domain.Feathers, 20)
	b, err := w.rt.PurchaseBuilding(ctx, w.player, w.village, domain.BlueFlowers, domain.TileIndex{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.BlueFlowers, b.Type)

	nest := int64(1)
	require.NoError(t, w.store.InsertHobo(ctx, &domain.Hobo{VillageID: w.village, HP: 1, Nest: &nest}))
	seed := int64(7)
	reports, err := w.rt.RunTaxCollection(ctx, &seed)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	rep, err := w.rt.CollectReport(ctx, w.player, w.village, reports[0].ID)
	require.NoError(t, err)
	assert.Equal(t, reports[0].ID, rep.ID)
}

func TestCodeFromError(t *testing.T) {
	assert.Equal(t, transport.OK, CodeFromError(nil))
	assert.Equal(t, transport.SystemError, CodeFromError(errx.ErrTimeout.WithMsg("x")))
	assert.Equal(t, transport.TaskRejected, CodeFromError(app.Reject(app.ReasonNoWorker, nil)))
	assert.Equal(t, transport.SystemError, CodeFromError(errors.New("boom")))
}

func TestRuntime_请求超时取较小值(t *testing.T) {
	r := &Runtime{timeout: time.Second}
	assert.Equal(t, time.Second, r.askTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	d := r.askTimeout(ctx)
	assert.LessOrEqual(t, d, 100*time.Millisecond)
	assert.Greater(t, d, time.Duration(0))

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, time.Millisecond, r.askTimeout(expired))
}

func TestRuntime_未启动(t *testing.T) {
	var r *Runtime
	_, err := r.Snapshot(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, errx.CodeInternal, errx.CodeOf(err))
	assert.False(t, errx.Retryable(err))
}
