package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
)

// 每个正在干活的工人每轮产出一个单位。
var jobOutput = []struct {
	job domain.TaskType
	res domain.ResourceType
}{
	{domain.GatherSticks, domain.Sticks},
	{domain.ChopTree, domain.Logs},
}

// RunEconomyTick 按当前在捡树枝、砍树的工人数给村庄加资源，返回本轮产出。
func (s *Town) RunEconomyTick(ctx context.Context, villageID int64, now time.Time) (map[domain.ResourceType]int64, error) {
	gained := map[domain.ResourceType]int64{}
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		for _, o := range jobOutput {
			n, err := tx.CountActiveTasks(ctx, villageID, o.job, now)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			if err := tx.AdjustResource(ctx, villageID, o.res, int64(n)); err != nil {
				return err
			}
			gained[o.res] = int64(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(gained) > 0 {
		s.log.WithContext(ctx).Debug("economy tick", zap.Int64("village_id", villageID), zap.Any("gained", gained))
		s.notifier.Notify(villageID, "resources", gained)
	}
	return gained, nil
}
