package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
)

// 无主进攻：2~3 个赶路的弱访客加 1 个会停下休息的强访客。
const (
	hurriedSpeed   = 0.05
	restingSpeed   = 0.25
	hurriedMinHP   = 1
	hurriedMaxHP   = 6
	restingHP      = 8
	minHurriedSent = 2
	maxHurriedSent = 3
)

// SpawnAnarchistAttack 给村庄派一波无主进攻，返回进攻和它的到达事件。
func (s *Town) SpawnAnarchistAttack(ctx context.Context, villageID int64, now time.Time, travel time.Duration) (*domain.Attack, *event.TimedEvent, error) {
	n := minHurriedSent + s.rng.IntN(maxHurriedSent-minHurriedSent+1)
	hobos := make([]domain.Hobo, 0, n+1)
	for i := 0; i < n; i++ {
		hobos = append(hobos, domain.Hobo{
			VillageID: villageID,
			HP:        hurriedMinHP + s.rng.IntN(hurriedMaxHP-hurriedMinHP+1),
			Speed:     hurriedSpeed,
			Hurried:   true,
		})
	}
	hobos = append(hobos, domain.Hobo{VillageID: villageID, HP: restingHP, Speed: restingSpeed})

	atk := &domain.Attack{
		ID:                   s.ids.NextID(),
		Departure:            now,
		Arrival:              now.Add(travel),
		DestinationVillageID: villageID,
	}
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		if _, err := tx.Village(ctx, villageID); err != nil {
			return err
		}
		ids := make([]int64, 0, len(hobos))
		for i := range hobos {
			if err := tx.InsertHobo(ctx, &hobos[i]); err != nil {
				return err
			}
			ids = append(ids, hobos[i].ID)
		}
		return tx.InsertAttack(ctx, atk, ids)
	})
	if err != nil {
		return nil, nil, err
	}

	trigger := atk.Arrival.Add(FightDuration(hobos))
	s.log.WithContext(ctx).Info("anarchist attack sent",
		zap.Int64("village_id", villageID), zap.Int64("attack_id", atk.ID),
		zap.Int("hobos", len(hobos)), zap.Time("arrival", atk.Arrival))
	s.notifier.Notify(villageID, "attack", atk)
	// 到达后还要等访客走完 lane，事件直接排在结算时刻之后一点
	return atk, &event.TimedEvent{At: trigger.Add(time.Microsecond), Event: event.AttackArrival(atk.ID)}, nil
}

// PickAttackTarget 随机选一个玩家村庄，没有返回 false。
func (s *Town) PickAttackTarget(ctx context.Context) (int64, bool, error) {
	villages, err := s.store.PlayerVillages(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(villages) == 0 {
		return 0, false, nil
	}
	return villages[s.rng.IntN(len(villages))].ID, true, nil
}
