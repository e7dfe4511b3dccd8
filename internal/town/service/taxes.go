package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/modules/kit/logx"
)

// NextTaxCollection 十秒后所在那一天的 23:59:59（按 loc 计）。
func NextTaxCollection(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := now.Add(10 * time.Second).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc).UTC()
}

// TaxSeed 抽一轮收税的种子，0..255。
func (s *Town) TaxSeed() int64 {
	return s.taxSeed()
}

// NextTaxAt 按配置的时区计算下一次收税时间。
func (s *Town) NextTaxAt(now time.Time) time.Time {
	return NextTaxCollection(now, s.taxLoc)
}

// taxPayout 定居访客交的税，由 hobo id 和本轮种子决定：(|id×seed| + seed) mod 255，乘法按 int64 回绕。
// 绝对值在 uint64 上取，MinInt64 也有正确的模；负种子按非负余数参与。
func taxPayout(hoboID, seed int64) domain.VisitReport {
	r := domain.VisitReport{Karma: 1}
	p := hoboID * seed
	mag := uint64(p)
	if p < 0 {
		mag = -mag
	}
	s := uint64(((seed % 255) + 255) % 255)
	switch v := (mag%255 + s) % 255; {
	case v == 0:
		r.Feathers = 3
	case v < 20:
		r.Logs = 1
	case v < 60:
		r.Feathers = 1
	}
	return r
}

// RunTaxCollection 给每个玩家村庄的每个定居访客生成一份可领取的报告。
// 单个村庄失败只记录，不影响其他村庄。
func (s *Town) RunTaxCollection(ctx context.Context, seed int64, now time.Time) ([]domain.VisitReport, error) {
	villages, err := s.store.PlayerVillages(ctx)
	if err != nil {
		return nil, err
	}
	var all []domain.VisitReport
	for _, v := range villages {
		reports, err := s.collectTaxes(ctx, v.ID, seed, now)
		if err != nil {
			logx.ReportError(ctx, s.log, "collect_taxes", err, zap.Int64("village_id", v.ID))
			continue
		}
		for _, r := range reports {
			s.archive.Archive(port.ArchivedReport{
				ID:        r.ID,
				VillageID: r.VillageID,
				Kind:      "tax",
				At:        now,
				Karma:     r.Karma,
				Resources: r.Resources(),
			})
			s.notifier.Notify(r.VillageID, "report", r)
		}
		all = append(all, reports...)
	}
	s.log.WithContext(ctx).Info("taxes collected", zap.Int("villages", len(villages)), zap.Int("reports", len(all)))
	return all, nil
}

func (s *Town) collectTaxes(ctx context.Context, villageID, seed int64, now time.Time) ([]domain.VisitReport, error) {
	var out []domain.VisitReport
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		out = out[:0]
		hobos, err := tx.SettledHobos(ctx, villageID)
		if err != nil {
			return err
		}
		for _, h := range hobos {
			r := taxPayout(h.ID, seed)
			id := h.ID
			r.VillageID = villageID
			r.SenderHoboID = &id
			r.ReportedAt = now
			if err := tx.InsertReport(ctx, &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// CollectReport 领取报告：资源进村庄，karma 给村主，报告删除。
func (s *Town) CollectReport(ctx context.Context, villageID, reportID int64) (*domain.VisitReport, error) {
	var rep *domain.VisitReport
	err := s.store.WithTx(ctx, func(tx port.TownStore) error {
		r, err := tx.Report(ctx, reportID)
		if err != nil {
			return err
		}
		if r.VillageID != villageID {
			return app.ErrForbidden.WithDataMap(map[string]any{"report_id": reportID, "village_id": villageID})
		}
		if err := s.creditVillage(ctx, tx, villageID, r.Resources(), r.Karma); err != nil {
			return err
		}
		rep = r
		return tx.DeleteReport(ctx, r.ID)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(villageID, "resources", rep.Resources())
	return rep, nil
}
