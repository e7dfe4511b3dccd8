package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
)

func TestRunEconomyTick_两个捡树枝的工人(t *testing.T) {
	f := newFixture(t)
	f.building(domain.BundlingStation, 2, 2, t0.Add(-time.Hour))
	for i := 0; i < 2; i++ {
		w := f.worker(2, 2, 1, 0)
		f.task(w.ID, domain.GatherSticks, 2, 2, t0.Add(-time.Minute))
	}
	// 还没开始的任务不算
	late := f.worker(2, 3, 1, 0)
	f.task(late.ID, domain.GatherSticks, 2, 2, t0.Add(time.Hour))

	gained, err := f.town.RunEconomyTick(f.ctx, f.village.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, map[domain.ResourceType]int64{domain.Sticks: 2}, gained)
	assert.Equal(t, int64(2), f.resource(domain.Sticks))
	assert.Equal(t, int64(0), f.resource(domain.Logs))
}

func TestRunEconomyTick_只看最近开始的任务(t *testing.T) {
	f := newFixture(t)
	f.building(domain.SawMill, 5, 2, t0.Add(-time.Hour))
	w := f.worker(5, 2, 1, 0)
	f.task(w.ID, domain.Walk, 5, 2, t0.Add(-2*time.Minute))
	f.task(w.ID, domain.ChopTree, 5, 2, t0.Add(-time.Minute))

	gained, err := f.town.RunEconomyTick(f.ctx, f.village.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gained[domain.Logs])
}

func TestNextTaxCollection(t *testing.T) {
	assert.Equal(t, time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), NextTaxCollection(t0, time.UTC))

	late := time.Date(2024, 5, 1, 23, 59, 55, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 2, 23, 59, 59, 0, time.UTC), NextTaxCollection(late, nil))

	east := time.FixedZone("UTC+8", 8*3600)
	assert.Equal(t, time.Date(2024, 5, 1, 15, 59, 59, 0, time.UTC), NextTaxCollection(t0, east))
}

func TestTaxPayout(t *testing.T) {
	cases := []struct {
		hobo, seed             int64
		feathers, sticks, logs int64
	}{
		{hobo: 0, seed: 0, feathers: 3},
		{hobo: 1, seed: 1, logs: 1},
		{hobo: 3, seed: 7, feathers: 1},
		{hobo: 9, seed: 7},
		{hobo: 20, seed: 7},
		// id×seed 正好是 MinInt64：2^63 mod 255 = 128，(128 + 128) mod 255 = 1
		{hobo: math.MinInt64 / 128, seed: 128, logs: 1},
		// 负种子：|3×-5| = 15，-5 的非负余数 250，(15 + 250) mod 255 = 10
		{hobo: 3, seed: -5, logs: 1},
	}
	for _, c := range cases {
		r := taxPayout(c.hobo, c.seed)
		assert.Equal(t, int64(1), r.Karma)
		assert.Equal(t, c.feathers, r.Feathers, "hobo=%d seed=%d", c.hobo, c.seed)
		assert.Equal(t, c.sticks, r.Sticks, "hobo=%d seed=%d", c.hobo, c.seed)
		assert.Equal(t, c.logs, r.Logs, "hobo=%d seed=%d", c.hobo, c.seed)
	}
}

func TestRunTaxCollection_每个定居访客一份报告(t *testing.T) {
	f := newFixture(t)
	nest := int64(1)
	settled := domain.Hobo{VillageID: f.village.ID, HP: 2, Nest: &nest}
	require.NoError(t, f.store.InsertHobo(f.ctx, &settled))
	visitor := domain.Hobo{VillageID: f.village.ID, HP: 2}
	require.NoError(t, f.store.InsertHobo(f.ctx, &visitor))
	// 非玩家村庄不收税
	npc := f.store.AddVillage(domain.Village{})
	require.NoError(t, f.store.InsertHobo(f.ctx, &domain.Hobo{VillageID: npc.ID, Nest: &nest}))

	reports, err := f.town.RunTaxCollection(f.ctx, 7, t0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, settled.ID, *reports[0].SenderHoboID)
	assert.Equal(t, int64(1), reports[0].Karma)

	stored, err := f.store.Reports(f.ctx, f.village.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	require.Len(t, f.archive.reports, 1)
	assert.Equal(t, "tax", f.archive.reports[0].Kind)
}

func TestCollectReport(t *testing.T) {
	f := newFixture(t)
	rep := domain.VisitReport{VillageID: f.village.ID, Karma: 2, Feathers: 3, Logs: 1, ReportedAt: t0}
	require.NoError(t, f.store.InsertReport(f.ctx, &rep))

	other := f.store.AddVillage(domain.Village{PlayerID: &f.player.ID})
	_, err := f.town.CollectReport(f.ctx, other.ID, rep.ID)
	assert.True(t, errors.Is(err, app.ErrForbidden))

	got, err := f.town.CollectReport(f.ctx, f.village.ID, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, int64(3), f.resource(domain.Feathers))
	assert.Equal(t, int64(1), f.resource(domain.Logs))
	p, err := f.store.Player(f.ctx, f.player.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Karma)

	_, err = f.town.CollectReport(f.ctx, f.village.ID, rep.ID)
	assert.True(t, errors.Is(err, app.ErrNotFound))
}
