package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
)

func TestGotoTile_绕开树走到捆扎站(t *testing.T) {
	f := newFixture(t)
	f.building(domain.BundlingStation, 4, 1, t0.Add(-time.Hour))
	f.building(domain.Tree, 4, 2, t0.Add(-time.Hour))
	w := f.worker(0, 3, 1, 0)

	res, err := f.town.GotoTile(f.ctx, w.ID, domain.Job{TaskType: domain.GatherSticks, X: 4, Y: 1})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Tasks), 3)

	last := res.Tasks[len(res.Tasks)-1]
	assert.Equal(t, domain.GatherSticks, last.TaskType)
	assert.Equal(t, domain.TileIndex{X: 4, Y: 1}, last.Pos())
	for _, tk := range res.Tasks[:len(res.Tasks)-1] {
		assert.Equal(t, domain.Walk, tk.TaskType)
	}
	// 六步路，速度 1
	assert.Equal(t, t0.Add(6*time.Second), last.StartTime)
}

func TestGotoTile_被围住(t *testing.T) {
	f := newFixture(t)
	f.building(domain.Tree, 1, 0, t0)
	f.building(domain.Tree, 0, 1, t0)
	w := f.worker(0, 0, 1, 0)

	_, err := f.town.GotoTile(f.ctx, w.ID, domain.Job{TaskType: domain.Idle, X: 5, Y: 5})
	assert.Equal(t, app.ReasonBlockedPath.Code, reasonOf(t, err))
}
