package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/shared/gameconfig/building"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/townmap"
)

// PurchaseBuilding 检查空地、扣费、放下建筑，全部在一个事务里。
func (s *Town) PurchaseBuilding(ctx context.Context, villageID int64, typ domain.BuildingType, pos domain.TileIndex, now time.Time) (*domain.Building, error) {
	st, ok := building.Get(typ)
	if !ok {
		return nil, app.ErrPurchaseRejected.WithMsg(app.ReasonUnknownType.Message).WithReason(app.ReasonUnknownType).
			WithData("type", string(typ))
	}
	if !st.CanPurchase() {
		return nil, app.ErrPurchaseRejected.WithMsg(app.ReasonNotPurchasable.Message).WithReason(app.ReasonNotPurchasable).
			WithData("type", string(typ))
	}

	var b *domain.Building
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		if _, err := tx.Village(ctx, villageID); err != nil {
			return err
		}
		view, err := townmap.Load(ctx, tx, villageID, now)
		if err != nil {
			return err
		}
		if !view.Map.BuildingHasSpace(pos) {
			return app.ErrPurchaseRejected.WithMsg(app.ReasonNoSpace.Message).WithReason(app.ReasonNoSpace).
				WithData("pos", pos.String())
		}
		for _, r := range domain.AllResourceTypes {
			if price := st.Cost[r]; price > 0 {
				if err := tx.AdjustResource(ctx, villageID, r, -price); err != nil {
					return err
				}
			}
		}
		b = &domain.Building{
			VillageID:       villageID,
			X:               pos.X,
			Y:               pos.Y,
			Type:            typ,
			Range:           st.Range,
			AttackPower:     st.AttackPower,
			AttacksPerCycle: st.AttacksPerCycle,
			Built:           now,
		}
		return tx.InsertBuilding(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("building purchased",
		zap.Int64("village_id", villageID), zap.String("type", string(typ)), zap.Stringer("pos", pos))
	s.notifier.Notify(villageID, "building", b)
	return b, nil
}
