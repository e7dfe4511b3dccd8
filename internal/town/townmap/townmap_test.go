package townmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/entity/domain"
)

func ti(x, y int) domain.TileIndex { return domain.TileIndex{X: x, Y: y} }

func TestPathWalkable(t *testing.T) {
	m := NewBasic()
	m.PlaceBuilding(ti(2, 1), domain.Tree)
	m.PlaceBuilding(ti(5, 1), domain.BundlingStation)

	cases := []struct {
		name       string
		start, end domain.TileIndex
		want       bool
	}{
		{"整条 lane", ti(0, domain.TownLaneY), ti(domain.TownX-1, domain.TownLaneY), true},
		{"反向也行", ti(6, 0), ti(6, 5), true},
		{"原地", ti(1, 1), ti(1, 1), true},
		{"斜线不行", ti(0, 0), ti(1, 1), false},
		{"树挡路", ti(2, 0), ti(2, 2), false},
		{"终点是树", ti(0, 1), ti(2, 1), false},
		{"捆扎站可以穿过", ti(5, 0), ti(5, 2), true},
		{"出界", ti(0, 0), ti(-1, 0), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, m.PathWalkable(c.start, c.end))
		})
	}
}

func TestTownMap_At出界是阻挡(t *testing.T) {
	m := NewBasic()
	assert.Equal(t, TileBlocked, m.At(ti(-1, 0)).Kind)
	assert.Equal(t, TileBlocked, m.At(ti(domain.TownX, 0)).Kind)
	assert.Equal(t, TileLane, m.At(ti(0, domain.TownLaneY)).Kind)
	assert.Equal(t, TileEmpty, m.At(ti(0, 0)).Kind)
}

func TestBuildingHasSpace(t *testing.T) {
	m := NewBasic()
	assert.True(t, m.BuildingHasSpace(ti(1, 1)))
	assert.False(t, m.BuildingHasSpace(ti(1, domain.TownLaneY)), "lane 上不能建")
	assert.False(t, m.BuildingHasSpace(ti(domain.TownX, 0)))

	m.PlaceBuilding(ti(1, 1), domain.SawMill)
	assert.False(t, m.BuildingHasSpace(ti(1, 1)))
}

func TestLaneTilesInRange(t *testing.T) {
	assert.Equal(t, 1, LaneTilesInRange(ti(4, domain.TownLaneY), 0))
	assert.Equal(t, 1, LaneTilesInRange(ti(4, domain.TownLaneY-2), 2))
	assert.Equal(t, 3, LaneTilesInRange(ti(4, domain.TownLaneY-1), 1.5))
	assert.Equal(t, 0, LaneTilesInRange(ti(4, 0), 1))
}

func TestTileState_容量(t *testing.T) {
	s := NewTileState(7, 1, 0)
	require.NoError(t, s.TryAddEntity())
	assert.ErrorIs(t, s.TryAddEntity(), ErrCapacityExceeded)
	require.NoError(t, s.TryRemoveEntity())
	assert.ErrorIs(t, s.TryRemoveEntity(), ErrEmpty)
	assert.Equal(t, 0, s.Count)
}

func TestTownState_森林供给(t *testing.T) {
	s := NewTownState()
	s.ForestSize = 4

	require.NoError(t, s.RegisterTaskBegin(domain.ChopTree))
	require.NoError(t, s.RegisterTaskBegin(domain.GatherSticks))
	assert.ErrorIs(t, s.RegisterTaskBegin(domain.GatherSticks), ErrNotEnoughSupply)
	require.NoError(t, s.RegisterTaskBegin(domain.Idle))

	require.NoError(t, s.RegisterTaskEnd(domain.ChopTree))
	assert.True(t, s.HasSupplyFor(domain.ChopTree))
	require.NoError(t, s.RegisterTaskEnd(domain.GatherSticks))
	assert.ErrorIs(t, s.RegisterTaskEnd(domain.GatherSticks), ErrInvalidState)
}

func TestTownState_插入和移除(t *testing.T) {
	s := NewTownState()
	s.Insert(ti(1, 1), NewTileState(3, 2, 1))
	assert.Equal(t, 1, s.CountAt(ti(1, 1)))
	assert.Equal(t, 0, s.CountAt(ti(2, 2)))

	removed := s.Remove(ti(1, 1))
	require.NotNil(t, removed)
	assert.Equal(t, int64(3), removed.BuildingID)
	assert.Nil(t, s.Remove(ti(1, 1)))
	_, ok := s.Get(ti(1, 1))
	assert.False(t, ok)
}
