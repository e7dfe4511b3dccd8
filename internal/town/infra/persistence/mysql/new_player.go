package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/model"
)

const (
	heroX, heroY = 5, 2
	heroSpeed    = 0.5
)

// starterResources 新村庄的初始资源。
var starterResources = map[domain.ResourceType]int64{
	domain.Feathers: 50,
	domain.Sticks:   50,
}

// Starter 新玩家开局得到的实体。
type Starter struct {
	Player  domain.Player
	Village domain.Village
	Hero    domain.Worker
}

// NewPlayer 一个事务里建玩家、村庄和英雄：英雄在 (5,2) 待命，带迎客技能，村里有初始资源。
func (r *TownRepo) NewPlayer(ctx context.Context, now time.Time) (*Starter, error) {
	var s Starter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.withDB(tx)
		if err := repo.CreatePlayer(ctx, &s.Player); err != nil {
			return err
		}
		pid := s.Player.ID
		s.Village = domain.Village{PlayerID: &pid}
		if err := repo.CreateVillage(ctx, &s.Village); err != nil {
			return err
		}

		mana := 0
		s.Hero = domain.Worker{VillageID: s.Village.ID, X: heroX, Y: heroY, Speed: heroSpeed, Mana: &mana, Level: 1}
		if err := repo.CreateWorker(ctx, &s.Hero); err != nil {
			return err
		}
		if _, err := repo.ReplaceWorkerTasks(ctx, s.Hero.ID, []domain.Task{{
			WorkerID: s.Hero.ID, TaskType: domain.Idle, X: heroX, Y: heroY, StartTime: domain.Micro(now),
		}}); err != nil {
			return err
		}
		ability := &model.Ability{WorkerID: s.Hero.ID, AbilityType: string(domain.Welcome)}
		if err := tx.Create(ability).Error; err != nil {
			return infra(OpInsert, err, map[string]any{"table": "abilities"})
		}
		for res, n := range starterResources {
			if err := repo.AdjustResource(ctx, s.Village.ID, res, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
