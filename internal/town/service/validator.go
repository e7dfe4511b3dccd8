package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
	"Paddlers/internal/town/townmap"
)

// InterruptTask 打断当前任务，返回新任务最早的开始时间，不早于 now。
// 走路会在下一个整格处停下，cur 的坐标被改成停下的位置。
func InterruptTask(w domain.Worker, cur *domain.Task, now time.Time) time.Time {
	if cur == nil {
		return now
	}
	switch cur.TaskType {
	case domain.Walk:
		if w.Speed <= 0 {
			cur.X, cur.Y = w.X, w.Y
			return now
		}
		elapsed := max(now.Sub(cur.StartTime), 0)
		steps := int(math.Ceil(w.Speed * elapsed.Seconds()))
		dx, dy := cur.X-w.X, cur.Y-w.Y
		steps = min(steps, absInt(dx)+absInt(dy))
		cur.X = w.X + signInt(dx)*steps
		cur.Y = w.Y + signInt(dy)*steps
		return notBefore(cur.StartTime.Add(domain.Seconds(float64(steps)/w.Speed)), now)
	case domain.WelcomeAbility:
		return notBefore(cur.StartTime.Add(domain.Welcome.Stats().BusyDuration), now)
	default:
		return now
	}
}

// notBefore 队列最后一个任务不会被执行，早已结束的走路不能把新任务拖到过去。
func notBefore(t, now time.Time) time.Time {
	if t.Before(now) {
		return now
	}
	return t
}

// plan 一次校验的结果。current 是被打断（可能截短）的当前任务。
type plan struct {
	worker  domain.Worker
	current *domain.Task
	tasks   []domain.Task
}

// ValidateAndBuildTaskList 在内存里模拟整串任务，全部通过才返回带开始时间的任务，不写存储。
func (s *Town) ValidateAndBuildTaskList(ctx context.Context, workerID int64, jobs []domain.Job) ([]domain.Task, error) {
	p, err := s.buildPlan(ctx, s.store, workerID, jobs, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return p.tasks, nil
}

func (s *Town) buildPlan(ctx context.Context, r port.TownReader, workerID int64, jobs []domain.Job, now time.Time) (*plan, error) {
	w, err := r.Worker(ctx, workerID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return nil, app.Reject(app.ReasonNoWorker, map[string]any{"worker_id": workerID})
		}
		return nil, err
	}
	view, err := townmap.Load(ctx, r, w.VillageID, now)
	if err != nil {
		return nil, err
	}
	queue, err := r.WorkerTasks(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	p := &plan{worker: *w}
	if len(queue) > 0 {
		cur := queue[0]
		p.current = &cur
	}
	releaseOwnQueue(view, queue)

	ts := InterruptTask(p.worker, p.current, now)
	if p.current != nil {
		p.worker.X, p.worker.Y = p.current.X, p.current.Y
	}

	sim := &simulation{view: view, worker: &p.worker}
	for i, job := range jobs {
		fail := func(reason app.Reason) error {
			return app.Reject(reason, map[string]any{"index": i, "task_type": string(job.TaskType)})
		}
		if !job.TaskType.Valid() {
			return nil, fail(app.ReasonUnknownJob)
		}
		if job.TargetHoboID != nil {
			if _, err := r.Hobo(ctx, *job.TargetHoboID); err != nil {
				if errors.Is(err, app.ErrNotFound) {
					return nil, fail(app.ReasonNoSuchHobo)
				}
				return nil, err
			}
		}
		if a, ok := job.TaskType.Ability(); ok {
			if reason, err := sim.validateAbility(ctx, r, a, ts); err != nil {
				return nil, err
			} else if reason != nil {
				return nil, fail(*reason)
			}
		}
		if reason := sim.begin(job); reason != nil {
			return nil, fail(*reason)
		}
		d, reason := sim.finish(job)
		if reason != nil {
			return nil, fail(*reason)
		}
		p.tasks = append(p.tasks, domain.Task{
			WorkerID:     w.ID,
			TaskType:     job.TaskType,
			X:            job.X,
			Y:            job.Y,
			StartTime:    ts,
			TargetHoboID: job.TargetHoboID,
		})
		ts = ts.Add(d)
	}
	return p, nil
}

// releaseOwnQueue 新任务会替换掉工人自己的队列，先把这些任务占用的建筑位置和森林供给还回去。
func releaseOwnQueue(view *townmap.TownView, queue []domain.Task) {
	if len(queue) == 0 {
		return
	}
	_ = view.State.RegisterTaskEnd(queue[0].TaskType)

	released := map[domain.TileIndex]bool{}
	for _, t := range queue {
		pos := t.Pos()
		if released[pos] {
			continue
		}
		tile := view.Map.At(pos)
		if tile.Kind != townmap.TileBuilding || tile.Building.JobTask() != t.TaskType || t.TaskType == domain.Idle {
			continue
		}
		if ts, ok := view.State.Get(pos); ok {
			_ = ts.TryRemoveEntity()
		}
		released[pos] = true
	}
}

type simulation struct {
	view   *townmap.TownView
	worker *domain.Worker
	// 本次列表里技能的使用时间，冷却要把它们也算上
	used map[domain.AbilityType]time.Time
}

func (s *simulation) validateAbility(ctx context.Context, r port.TownReader, a domain.AbilityType, at time.Time) (*app.Reason, error) {
	ab, err := r.WorkerAbility(ctx, s.worker.ID, a)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return &app.ReasonNoAbility, nil
		}
		return nil, err
	}
	cd := a.Stats().Cooldown
	if ab.LastUsed != nil && ab.LastUsed.Add(cd).After(at) {
		return &app.ReasonCooldown, nil
	}
	if last, ok := s.used[a]; ok && last.Add(cd).After(at) {
		return &app.ReasonCooldown, nil
	}
	if s.used == nil {
		s.used = map[domain.AbilityType]time.Time{}
	}
	s.used[a] = at
	return nil, nil
}

// begin 开始任务时对村庄状态的影响。
func (s *simulation) begin(job domain.Job) *app.Reason {
	switch job.TaskType {
	case domain.Idle, domain.Walk:
		return nil
	case domain.CollectReward:
		b, ok := s.buildingAt(job.Pos())
		if !ok {
			return &app.ReasonNoBuilding
		}
		if st, ok := building.Get(b); !ok || st.RewardExp == nil {
			return &app.ReasonNoReward
		}
		return nil
	case domain.GatherSticks, domain.ChopTree:
		b, ok := s.buildingAt(job.Pos())
		if !ok {
			return &app.ReasonNoBuilding
		}
		if b.JobTask() != job.TaskType {
			return &app.ReasonUnknownJob
		}
		ts, ok := s.view.State.Get(job.Pos())
		if !ok {
			return &app.ReasonNoBuilding
		}
		if err := s.view.State.RegisterTaskBegin(job.TaskType); err != nil {
			return &app.ReasonNotEnoughSupply
		}
		if err := ts.TryAddEntity(); err != nil {
			return &app.ReasonCapacityExceeded
		}
		return nil
	case domain.WelcomeAbility:
		if job.TargetHoboID == nil {
			return &app.ReasonNoTarget
		}
		cost := domain.Welcome.Stats().ManaCost
		if s.worker.Mana == nil || *s.worker.Mana < cost {
			return &app.ReasonNotEnoughMana
		}
		m := *s.worker.Mana - cost
		s.worker.Mana = &m
		return nil
	default:
		return &app.ReasonUnknownJob
	}
}

// finish 结束任务时对村庄状态的影响，返回任务持续的时间。
func (s *simulation) finish(job domain.Job) (time.Duration, *app.Reason) {
	switch job.TaskType {
	case domain.Idle:
		return 0, nil
	case domain.Walk:
		from, to := s.worker.Pos(), job.Pos()
		if s.worker.Speed <= 0 || !s.view.PathWalkable(from, to) {
			return 0, &app.ReasonBlockedPath
		}
		d := domain.Seconds(math.Sqrt(float64(from.Dist2(to))) / s.worker.Speed)
		s.worker.X, s.worker.Y = to.X, to.Y
		return d, nil
	case domain.GatherSticks, domain.ChopTree:
		if err := s.view.State.RegisterTaskEnd(job.TaskType); err != nil {
			return 0, &app.ReasonNotEnoughSupply
		}
		ts, ok := s.view.State.Get(job.Pos())
		if !ok {
			return 0, &app.ReasonNoBuilding
		}
		if err := ts.TryRemoveEntity(); err != nil {
			return 0, &app.ReasonNoBuilding
		}
		return 0, nil
	case domain.WelcomeAbility:
		return domain.Welcome.Stats().BusyDuration, nil
	case domain.CollectReward:
		s.view.State.Remove(job.Pos())
		s.view.Map.Set(job.Pos(), townmap.TileType{Kind: townmap.TileEmpty})
		return 0, nil
	default:
		return 0, &app.ReasonUnknownJob
	}
}

func (s *simulation) buildingAt(pos domain.TileIndex) (domain.BuildingType, bool) {
	t := s.view.Map.At(pos)
	if t.Kind != townmap.TileBuilding {
		return "", false
	}
	return t.Building, true
}

// SubmitResult 提交成功后写入的新任务，以及交给调度器的后续事件。
type SubmitResult struct {
	VillageID int64
	Tasks     []domain.Task
	Follow    *event.TimedEvent
}

// SubmitTaskList 校验并在一个事务里替换工人的任务队列。
// 当前任务（走路时已截短）保留在队首，原来排在后面的任务全部丢弃。
func (s *Town) SubmitTaskList(ctx context.Context, workerID int64, jobs []domain.Job) (*SubmitResult, error) {
	now := s.clock.Now()
	res := &SubmitResult{}
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		p, err := s.buildPlan(ctx, tx, workerID, jobs, now)
		if err != nil {
			return err
		}
		res.VillageID = p.worker.VillageID

		queue := p.tasks
		if p.current != nil {
			queue = append([]domain.Task{*p.current}, p.tasks...)
		}
		persisted, err := tx.ReplaceWorkerTasks(ctx, workerID, queue)
		if err != nil {
			return err
		}
		if p.current != nil {
			res.Tasks = persisted[1:]
		} else {
			res.Tasks = persisted
		}
		if len(persisted) >= 2 {
			res.Follow = &event.TimedEvent{At: persisted[1].StartTime, Event: event.WorkerTask(persisted[0].ID)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Debug("task list replaced",
		zap.Int64("worker_id", workerID), zap.Int("tasks", len(res.Tasks)))
	s.notifier.Notify(res.VillageID, "task", res.Tasks)
	return res, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
