package service

import (
	"context"
	"errors"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/pathing"
	"Paddlers/internal/town/townmap"
)

// GotoTile 从工人被打断后的位置寻路到 job 所在格，生成 Walk 链再提交。
func (s *Town) GotoTile(ctx context.Context, workerID int64, job domain.Job) (*SubmitResult, error) {
	now := s.clock.Now()
	w, err := s.store.Worker(ctx, workerID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return nil, app.Reject(app.ReasonNoWorker, map[string]any{"worker_id": workerID})
		}
		return nil, err
	}
	cur, _, err := s.store.CurrentAndNextTask(ctx, workerID)
	if err != nil {
		return nil, err
	}
	start := w.Pos()
	if cur != nil {
		InterruptTask(*w, cur, now)
		start = cur.Pos()
	}

	view, err := townmap.Load(ctx, s.store, w.VillageID, now)
	if err != nil {
		return nil, err
	}
	jobs, err := pathing.BuildTaskChain(view.Map, start, job.Pos(), job)
	if err != nil {
		if errors.Is(err, pathing.ErrUnreachable) {
			return nil, app.Reject(app.ReasonBlockedPath, map[string]any{"index": 0, "task_type": string(domain.Walk)})
		}
		return nil, err
	}
	return s.SubmitTaskList(ctx, workerID, jobs)
}
