package pathing

import (
	"errors"

	"Paddlers/internal/town/entity/domain"
)

var ErrUnreachable = errors.New("destination unreachable")

// BuildTaskChain 走到 destination（不可走时走到它旁边一格）再做 job。
// 路径在每个拐点切成一段 Walk，保证每段都是直线。
func BuildTaskChain(grid Grid, start, destination domain.TileIndex, job domain.Job) ([]domain.Job, error) {
	var (
		path []domain.TileIndex
		ok   bool
	)
	if grid.IsWalkable(destination) {
		path, _, ok = ShortestPath(grid, start, destination)
	} else {
		_, path, _, ok = ClosestWalkableTileInRange(grid, start, destination, 1)
	}
	if !ok {
		return nil, ErrUnreachable
	}

	jobs := walkSegments(path)
	end := path[len(path)-1]
	if job.TaskType != domain.Walk {
		job.X, job.Y = end.X, end.Y
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func walkSegments(path []domain.TileIndex) []domain.Job {
	var jobs []domain.Job
	if len(path) < 2 {
		return jobs
	}
	dir := step(path[0], path[1])
	for i := 2; i < len(path); i++ {
		d := step(path[i-1], path[i])
		if d != dir {
			corner := path[i-1]
			jobs = append(jobs, domain.Job{TaskType: domain.Walk, X: corner.X, Y: corner.Y})
			dir = d
		}
	}
	last := path[len(path)-1]
	return append(jobs, domain.Job{TaskType: domain.Walk, X: last.X, Y: last.Y})
}

func step(a, b domain.TileIndex) domain.TileIndex {
	return domain.TileIndex{X: b.X - a.X, Y: b.Y - a.Y}
}
