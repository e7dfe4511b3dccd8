package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/townmap"
)

// FightDuration 最慢的单位走完 lane 的时间。速度不为正的单位不参与，没有会动的单位时为 0。
func FightDuration(hobos []domain.Hobo) time.Duration {
	minSpeed := math.Inf(1)
	for _, h := range hobos {
		if h.Speed > 0 && h.Speed < minSpeed {
			minSpeed = h.Speed
		}
	}
	if math.IsInf(minSpeed, 1) {
		return 0
	}
	return domain.Seconds(float64(domain.LaneLengthTiles) / minSpeed)
}

// RewardFeathers 被满足的访客带来的羽毛。
func RewardFeathers(hp int, speed float64) int64 {
	x := float64(hp) * speed / 4
	if x <= 0 {
		return 0
	}
	f := math.Ceil(math.Log2(1 + x))
	if f < 0 {
		return 0
	}
	return int64(f)
}

// FightOutcome ResolveAttack 的结果。Pending 时只有 TriggerAt 有意义；Gone 表示进攻已经结算过。
type FightOutcome struct {
	AttackID  int64
	VillageID int64
	Pending   bool
	Gone      bool
	TriggerAt time.Time
	Defence   int
	Defeated  []int64
	Survivors []int64
	Feathers  int64
	Karma     int64
}

// ResolveAttack 进攻到达后经过 FightDuration 才结算。
// 结算在一个事务里：被满足的访客删除并给村庄加羽毛、给玩家加 karma，最后删除进攻。
func (s *Town) ResolveAttack(ctx context.Context, attackID int64, now time.Time) (*FightOutcome, error) {
	out := &FightOutcome{AttackID: attackID}
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		atk, err := tx.Attack(ctx, attackID)
		if err != nil {
			if errors.Is(err, app.ErrNotFound) {
				out.Gone = true
				return nil
			}
			return err
		}
		out.VillageID = atk.DestinationVillageID

		hobos, err := tx.AttackHobos(ctx, atk.ID)
		if err != nil {
			return err
		}
		out.TriggerAt = atk.Arrival.Add(FightDuration(hobos))
		if !now.After(out.TriggerAt) {
			out.Pending = true
			return nil
		}

		view, err := townmap.Load(ctx, tx, atk.DestinationVillageID, now)
		if err != nil {
			return err
		}
		out.Defence = view.DefencePoints(now)

		for _, h := range hobos {
			effects, err := tx.EffectsOnHobo(ctx, h.ID)
			if err != nil {
				return err
			}
			if hpLeft(h, out.Defence, effects) > 0 {
				out.Survivors = append(out.Survivors, h.ID)
				continue
			}
			out.Defeated = append(out.Defeated, h.ID)
			out.Feathers += RewardFeathers(h.HP, h.Speed)
			out.Karma++
			if err := tx.DeleteHobo(ctx, h.ID); err != nil {
				return err
			}
		}

		if err := s.creditVillage(ctx, tx, atk.DestinationVillageID, map[domain.ResourceType]int64{domain.Feathers: out.Feathers}, out.Karma); err != nil {
			return err
		}
		return tx.DeleteAttack(ctx, atk.ID)
	})
	if err != nil {
		return nil, err
	}
	if out.Pending || out.Gone {
		return out, nil
	}

	s.log.WithContext(ctx).Info("attack resolved",
		zap.Int64("attack_id", attackID),
		zap.Int64("village_id", out.VillageID),
		zap.Int("defence", out.Defence),
		zap.Int("defeated", len(out.Defeated)),
		zap.Int("survivors", len(out.Survivors)))
	s.archive.Archive(port.ArchivedReport{
		ID:        s.ids.NextID(),
		VillageID: out.VillageID,
		Kind:      "fight",
		At:        now,
		Karma:     out.Karma,
		Resources: map[domain.ResourceType]int64{domain.Feathers: out.Feathers},
		Defeated:  out.Defeated,
		Survivors: out.Survivors,
		Defence:   out.Defence,
	})
	s.notifier.Notify(out.VillageID, "fight", out)
	return out, nil
}

// ResolveDueAttacks 结算村庄里所有已到期的进攻，未到期的跳过。
func (s *Town) ResolveDueAttacks(ctx context.Context, villageID int64, now time.Time) ([]*FightOutcome, error) {
	attacks, err := s.store.Attacks(ctx, villageID)
	if err != nil {
		return nil, err
	}
	var resolved []*FightOutcome
	for _, a := range attacks {
		out, err := s.ResolveAttack(ctx, a.ID, now)
		if err != nil {
			return resolved, err
		}
		if !out.Pending && !out.Gone {
			resolved = append(resolved, out)
		}
	}
	return resolved, nil
}

func hpLeft(h domain.Hobo, defence int, effects []domain.Effect) int {
	hp := h.HP - defence
	for _, e := range effects {
		if e.Attribute == domain.AttrHealth {
			hp -= e.Strength
		}
	}
	if hp < 0 {
		return 0
	}
	return hp
}

// creditVillage 给村庄加资源、给村主加 karma。非玩家村庄没有 karma。
func (s *Town) creditVillage(ctx context.Context, tx port.TownStore, villageID int64, res map[domain.ResourceType]int64, karma int64) error {
	for _, r := range domain.AllResourceTypes {
		if n := res[r]; n != 0 {
			if err := tx.AdjustResource(ctx, villageID, r, n); err != nil {
				return err
			}
		}
	}
	if karma == 0 {
		return nil
	}
	v, err := tx.Village(ctx, villageID)
	if err != nil {
		return err
	}
	if !v.PlayerOwned() {
		return nil
	}
	return tx.AddKarma(ctx, *v.PlayerID, karma)
}
