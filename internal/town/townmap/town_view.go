package townmap

import (
	"context"
	"time"

	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
)

// TownView 单次校验/结算时从存储构建的村庄读模型，用完即弃，不做缓存。
type TownView struct {
	VillageID     int64
	Map           *TownMap
	State         *TownState
	AuraBuildings []domain.Building
}

// Load 读取村庄全部建筑铺到基础地图上，并按当前工人分布初始化各建筑的占用和森林供给。
func Load(ctx context.Context, r port.TownReader, villageID int64, now time.Time) (*TownView, error) {
	buildings, err := r.Buildings(ctx, villageID)
	if err != nil {
		return nil, err
	}
	v := &TownView{
		VillageID: villageID,
		Map:       NewBasic(),
		State:     NewTownState(),
	}
	for _, b := range buildings {
		idx := b.Pos()
		v.Map.PlaceBuilding(idx, b.Type)

		count := 0
		if job := b.Type.JobTask(); job != domain.Idle {
			if count, err = r.CountWorkersAt(ctx, villageID, b.X, b.Y, job); err != nil {
				return nil, err
			}
		}
		v.State.Insert(idx, NewTileState(b.ID, building.Capacity(b.Type), count))

		if b.Type == domain.Tree {
			v.State.ForestSize += domain.TreeSize(now.Sub(b.Built))
		}
		if b.IsAura() {
			v.AuraBuildings = append(v.AuraBuildings, b)
		}
	}

	workers, err := r.Workers(ctx, villageID)
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		cur, _, err := r.CurrentAndNextTask(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			continue
		}
		// 存储里的状态已经超额时照样记账，后续新任务会因供给不足被拒
		if err := v.State.RegisterTaskBegin(cur.TaskType); err != nil {
			v.State.ForestUsage += cur.TaskType.RequiredForestSize()
		}
	}
	return v, nil
}

func (v *TownView) PathWalkable(start, end domain.TileIndex) bool {
	return v.Map.PathWalkable(start, end)
}

// DefencePoints 截至 now 已建成、且射程覆盖 lane 的光环建筑攻击力之和。
func (v *TownView) DefencePoints(now time.Time) int {
	sum := 0
	for _, b := range v.AuraBuildings {
		if now.Before(b.Built) {
			continue
		}
		if LaneTilesInRange(b.Pos(), *b.Range) > 0 {
			sum += *b.AttackPower
		}
	}
	return sum
}
