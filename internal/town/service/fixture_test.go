package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/memory"
	"Paddlers/modules/kit/logx"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingArchive struct {
	mu      sync.Mutex
	reports []port.ArchivedReport
}

func (a *recordingArchive) Archive(r port.ArchivedReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, r)
}

type recordingNotifier struct {
	mu    sync.Mutex
	names []string
}

func (n *recordingNotifier) Notify(villageID int64, name string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, name)
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.TownRepository
	clock   *domain.FixedClock
	town    *Town
	archive *recordingArchive
	notes   *recordingNotifier
	player  domain.Player
	village domain.Village
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewTownRepository()
	clock := &domain.FixedClock{T: t0}
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		clock:   clock,
		archive: &recordingArchive{},
		notes:   &recordingNotifier{},
	}
	f.town = NewTown(store, clock, logx.Nop(),
		WithArchive(f.archive), WithNotifier(f.notes), WithTaxSeed(func() int64 { return 7 }))
	f.player = store.AddPlayer(domain.Player{})
	pid := f.player.ID
	f.village = store.AddVillage(domain.Village{PlayerID: &pid})
	return f
}

func (f *fixture) worker(x, y int, speed float64, mana int) domain.Worker {
	m := mana
	return f.store.AddWorker(domain.Worker{VillageID: f.village.ID, X: x, Y: y, Speed: speed, Mana: &m, Level: 1})
}

func (f *fixture) building(typ domain.BuildingType, x, y int, built time.Time) domain.Building {
	f.t.Helper()
	st, ok := building.Get(typ)
	require.True(f.t, ok)
	b := domain.Building{
		VillageID:       f.village.ID,
		X:               x,
		Y:               y,
		Type:            typ,
		Range:           st.Range,
		AttackPower:     st.AttackPower,
		AttacksPerCycle: st.AttacksPerCycle,
		Built:           built,
	}
	require.NoError(f.t, f.store.InsertBuilding(f.ctx, &b))
	return b
}

func (f *fixture) task(workerID int64, typ domain.TaskType, x, y int, start time.Time) domain.Task {
	return f.store.AddTask(domain.Task{WorkerID: workerID, TaskType: typ, X: x, Y: y, StartTime: start})
}

func (f *fixture) resource(r domain.ResourceType) int64 {
	f.t.Helper()
	n, err := f.store.Resource(f.ctx, f.village.ID, r)
	require.NoError(f.t, err)
	return n
}
