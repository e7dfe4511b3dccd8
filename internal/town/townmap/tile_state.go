package townmap

import (
	"errors"

	"Paddlers/internal/town/entity/domain"
)

var (
	ErrCapacityExceeded = errors.New("building is full")
	ErrEmpty            = errors.New("no entity to remove")
	ErrNotEnoughSupply  = errors.New("not enough forest supply")
	ErrInvalidState     = errors.New("invalid town state")
)

// TileState 建筑格的占用计数，满足 0 <= Count <= Capacity。
type TileState struct {
	BuildingID int64
	Capacity   int
	Count      int
}

func NewTileState(buildingID int64, capacity, count int) *TileState {
	return &TileState{BuildingID: buildingID, Capacity: capacity, Count: count}
}

func (s *TileState) TryAddEntity() error {
	if s.Count >= s.Capacity {
		return ErrCapacityExceeded
	}
	s.Count++
	return nil
}

func (s *TileState) TryRemoveEntity() error {
	if s.Count <= 0 {
		return ErrEmpty
	}
	s.Count--
	return nil
}

// TownState 一次操作内的可变状态：建筑占用和森林供给。
type TownState struct {
	tiles       map[domain.TileIndex]*TileState
	ForestSize  int
	ForestUsage int
}

func NewTownState() *TownState {
	return &TownState{tiles: make(map[domain.TileIndex]*TileState)}
}

func (s *TownState) Insert(idx domain.TileIndex, ts *TileState) {
	s.tiles[idx] = ts
}

// Remove 返回被移除的状态，不存在时为 nil。
func (s *TownState) Remove(idx domain.TileIndex) *TileState {
	ts := s.tiles[idx]
	delete(s.tiles, idx)
	return ts
}

func (s *TownState) Get(idx domain.TileIndex) (*TileState, bool) {
	ts, ok := s.tiles[idx]
	return ts, ok
}

func (s *TownState) CountAt(idx domain.TileIndex) int {
	if ts, ok := s.tiles[idx]; ok {
		return ts.Count
	}
	return 0
}

func (s *TownState) HasSupplyFor(job domain.TaskType) bool {
	return s.ForestSize-s.ForestUsage >= job.RequiredForestSize()
}

func (s *TownState) RegisterTaskBegin(job domain.TaskType) error {
	if !s.HasSupplyFor(job) {
		return ErrNotEnoughSupply
	}
	s.ForestUsage += job.RequiredForestSize()
	return nil
}

func (s *TownState) RegisterTaskEnd(job domain.TaskType) error {
	req := job.RequiredForestSize()
	if s.ForestUsage < req {
		return ErrInvalidState
	}
	s.ForestUsage -= req
	return nil
}
