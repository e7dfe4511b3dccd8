package townmap

import (
	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/entity/domain"
)

type TileKind uint8

const (
	TileEmpty TileKind = iota
	TileLane
	TileBuilding
	TileBlocked
)

type TileType struct {
	Kind     TileKind
	Building domain.BuildingType
}

func (t TileType) IsWalkable() bool {
	switch t.Kind {
	case TileEmpty, TileLane:
		return true
	case TileBuilding:
		return building.Walkable(t.Building)
	default:
		return false
	}
}

// TownMap 固定尺寸的地块网格，按 [x][y] 存放。
type TownMap struct {
	tiles [domain.TownX][domain.TownY]TileType
}

// NewBasic 基础布局：进攻路线一整行是 lane，其余为空地。
func NewBasic() *TownMap {
	m := &TownMap{}
	for x := 0; x < domain.TownX; x++ {
		m.tiles[x][domain.TownLaneY] = TileType{Kind: TileLane}
	}
	return m
}

// At 越界返回 TileBlocked。
func (m *TownMap) At(idx domain.TileIndex) TileType {
	if !idx.InGrid() {
		return TileType{Kind: TileBlocked}
	}
	return m.tiles[idx.X][idx.Y]
}

func (m *TownMap) Set(idx domain.TileIndex, t TileType) {
	if idx.InGrid() {
		m.tiles[idx.X][idx.Y] = t
	}
}

func (m *TownMap) PlaceBuilding(idx domain.TileIndex, b domain.BuildingType) {
	m.Set(idx, TileType{Kind: TileBuilding, Building: b})
}

func (m *TownMap) IsWalkable(idx domain.TileIndex) bool {
	return m.At(idx).IsWalkable()
}

// PathWalkable 起点终点必须同行或同列，且两端（含）之间每一格都可走。
func (m *TownMap) PathWalkable(start, end domain.TileIndex) bool {
	if start.X != end.X && start.Y != end.Y {
		return false
	}
	dx, dy := sign(end.X-start.X), sign(end.Y-start.Y)
	pos := start
	for {
		if !m.IsWalkable(pos) {
			return false
		}
		if pos == end {
			return true
		}
		pos = domain.TileIndex{X: pos.X + dx, Y: pos.Y + dy}
	}
}

// BuildingHasSpace 可建造：在图内、不在 lane 行、没有建筑。
func (m *TownMap) BuildingHasSpace(idx domain.TileIndex) bool {
	if !idx.InGrid() || idx.Y == domain.TownLaneY {
		return false
	}
	return m.At(idx).Kind == TileEmpty
}

// LaneTilesInRange lane 上与 pos 距离不超过 r 的格数。
func LaneTilesInRange(pos domain.TileIndex, r float64) int {
	n := 0
	for x := 0; x < domain.LaneLengthTiles; x++ {
		d2 := float64(pos.Dist2(domain.TileIndex{X: x, Y: domain.TownLaneY}))
		if d2 <= r*r {
			n++
		}
	}
	return n
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
