package pathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/entity/domain"
)

// blocks 5x5 网格，列出的格子不可走。
type blocks map[domain.TileIndex]bool

func (b blocks) IsWalkable(idx domain.TileIndex) bool {
	if idx.X < 0 || idx.Y < 0 || idx.X >= 5 || idx.Y >= 5 {
		return false
	}
	return !b[idx]
}

func ti(x, y int) domain.TileIndex { return domain.TileIndex{X: x, Y: y} }

func TestShortestPath_空地(t *testing.T) {
	path, cost, ok := ShortestPath(blocks{}, ti(0, 0), ti(3, 2))
	require.True(t, ok)
	assert.Equal(t, 5, cost)
	assert.Len(t, path, cost+1)
	assert.Equal(t, ti(0, 0), path[0])
	assert.Equal(t, ti(3, 2), path[len(path)-1])
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, path[i-1].Dist2(path[i]), "相邻两步必须四邻接")
	}
}

func TestShortestPath_绕墙(t *testing.T) {
	// x=2 这一列只有 y=4 可以通过
	g := blocks{ti(2, 0): true, ti(2, 1): true, ti(2, 2): true, ti(2, 3): true}
	path, cost, ok := ShortestPath(g, ti(0, 0), ti(4, 0))
	require.True(t, ok)
	assert.Equal(t, 12, cost)
	assert.Contains(t, path, ti(2, 4))
}

func TestShortestPath_不可达(t *testing.T) {
	g := blocks{ti(2, 0): true, ti(2, 1): true, ti(2, 2): true, ti(2, 3): true, ti(2, 4): true}
	path, _, ok := ShortestPath(g, ti(0, 0), ti(4, 0))
	assert.False(t, ok)
	assert.Nil(t, path)

	_, _, ok = ShortestPath(g, ti(0, 0), ti(2, 2))
	assert.False(t, ok, "目标不可走")
}

func TestShortestPath_原地(t *testing.T) {
	path, cost, ok := ShortestPath(blocks{}, ti(1, 1), ti(1, 1))
	require.True(t, ok)
	assert.Equal(t, 0, cost)
	assert.Equal(t, []domain.TileIndex{ti(1, 1)}, path)
}

func TestClosestWalkableTileInRange(t *testing.T) {
	g := blocks{ti(4, 4): true}
	reached, path, cost, ok := ClosestWalkableTileInRange(g, ti(0, 4), ti(4, 4), 1)
	require.True(t, ok)
	assert.Equal(t, ti(3, 4), reached)
	assert.Equal(t, 3, cost)
	assert.Len(t, path, 4)
}

func TestBuildTaskChain_拐点切段(t *testing.T) {
	g := blocks{ti(1, 0): true, ti(1, 1): true}
	jobs, err := BuildTaskChain(g, ti(0, 0), ti(2, 0), domain.Job{TaskType: domain.GatherSticks})
	require.NoError(t, err)
	require.NotEmpty(t, jobs)

	last := jobs[len(jobs)-1]
	assert.Equal(t, domain.GatherSticks, last.TaskType)
	assert.Equal(t, ti(2, 0), last.Pos())

	// 每段 Walk 都是直线
	pos := ti(0, 0)
	for _, j := range jobs[:len(jobs)-1] {
		assert.Equal(t, domain.Walk, j.TaskType)
		assert.True(t, pos.X == j.X || pos.Y == j.Y, "%v -> %v", pos, j.Pos())
		pos = j.Pos()
	}
	assert.Equal(t, ti(2, 0), pos)
}

func TestBuildTaskChain_不可达(t *testing.T) {
	g := blocks{ti(0, 1): true, ti(1, 0): true}
	_, err := BuildTaskChain(g, ti(0, 0), ti(4, 4), domain.Job{TaskType: domain.Walk})
	assert.ErrorIs(t, err, ErrUnreachable)
}
