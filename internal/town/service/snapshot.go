package service

import (
	"context"

	"Paddlers/internal/town/entity/domain"
)

type VillageSnapshot struct {
	Village   domain.Village
	Resources map[domain.ResourceType]int64
	Buildings []domain.Building
	Workers   []domain.Worker
	Tasks     map[int64][]domain.Task
	Attacks   []domain.Attack
	Reports   []domain.VisitReport
}

// Snapshot 村庄当前状态的只读快照。
func (s *Town) Snapshot(ctx context.Context, villageID int64) (*VillageSnapshot, error) {
	v, err := s.store.Village(ctx, villageID)
	if err != nil {
		return nil, err
	}
	snap := &VillageSnapshot{Village: *v, Tasks: map[int64][]domain.Task{}}
	if snap.Resources, err = s.store.Resources(ctx, villageID); err != nil {
		return nil, err
	}
	if snap.Buildings, err = s.store.Buildings(ctx, villageID); err != nil {
		return nil, err
	}
	if snap.Workers, err = s.store.Workers(ctx, villageID); err != nil {
		return nil, err
	}
	for _, w := range snap.Workers {
		tasks, err := s.store.WorkerTasks(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		snap.Tasks[w.ID] = tasks
	}
	if snap.Attacks, err = s.store.Attacks(ctx, villageID); err != nil {
		return nil, err
	}
	if snap.Reports, err = s.store.Reports(ctx, villageID); err != nil {
		return nil, err
	}
	return snap, nil
}
