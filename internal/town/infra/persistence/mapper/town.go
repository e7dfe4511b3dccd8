package mapper

import (
	"time"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/model"
)

// 数据库读出的时间统一转成 UTC 微秒。
func t(v time.Time) time.Time {
	return domain.Micro(v)
}

func PlayerModelToEntity(m *model.Player) *domain.Player {
	return &domain.Player{ID: m.ID, Karma: m.Karma}
}

func VillageModelToEntity(m *model.Village) domain.Village {
	return domain.Village{ID: m.ID, PlayerID: m.PlayerID, X: m.X, Y: m.Y}
}

func VillageEntityToModel(v domain.Village) *model.Village {
	return &model.Village{ID: v.ID, PlayerID: v.PlayerID, X: v.X, Y: v.Y}
}

func WorkerModelToEntity(m *model.Worker) domain.Worker {
	return domain.Worker{
		ID:        m.ID,
		VillageID: m.VillageID,
		X:         m.X,
		Y:         m.Y,
		Speed:     m.Speed,
		Mana:      m.Mana,
		Exp:       m.Exp,
		Level:     m.Level,
	}
}

func WorkerEntityToModel(w *domain.Worker) *model.Worker {
	return &model.Worker{
		ID:        w.ID,
		VillageID: w.VillageID,
		X:         w.X,
		Y:         w.Y,
		Speed:     w.Speed,
		Mana:      w.Mana,
		Exp:       w.Exp,
		Level:     w.Level,
	}
}

func TaskModelToEntity(m *model.Task) domain.Task {
	return domain.Task{
		ID:           m.ID,
		WorkerID:     m.WorkerID,
		TaskType:     domain.TaskType(m.TaskType),
		X:            m.X,
		Y:            m.Y,
		StartTime:    t(m.StartTime),
		TargetHoboID: m.TargetHoboID,
	}
}

func TaskEntityToModel(v domain.Task) *model.Task {
	return &model.Task{
		ID:           v.ID,
		WorkerID:     v.WorkerID,
		TaskType:     string(v.TaskType),
		X:            v.X,
		Y:            v.Y,
		StartTime:    t(v.StartTime),
		TargetHoboID: v.TargetHoboID,
	}
}

func BuildingModelToEntity(m *model.Building) domain.Building {
	return domain.Building{
		ID:              m.ID,
		VillageID:       m.VillageID,
		X:               m.X,
		Y:               m.Y,
		Type:            domain.BuildingType(m.BuildingType),
		Range:           m.BuildingRange,
		AttackPower:     m.AttackPower,
		AttacksPerCycle: m.AttacksPerCycle,
		Built:           t(m.Creation),
	}
}

func BuildingEntityToModel(b *domain.Building) *model.Building {
	return &model.Building{
		ID:              b.ID,
		VillageID:       b.VillageID,
		X:               b.X,
		Y:               b.Y,
		BuildingType:    string(b.Type),
		BuildingRange:   b.Range,
		AttackPower:     b.AttackPower,
		AttacksPerCycle: b.AttacksPerCycle,
		Creation:        t(b.Built),
	}
}

func HoboModelToEntity(m *model.Hobo) domain.Hobo {
	return domain.Hobo{ID: m.ID, VillageID: m.HomeID, HP: m.HP, Speed: m.Speed, Hurried: m.Hurried, Nest: m.Nest}
}

func HoboEntityToModel(h *domain.Hobo) *model.Hobo {
	return &model.Hobo{ID: h.ID, HomeID: h.VillageID, HP: h.HP, Speed: h.Speed, Hurried: h.Hurried, Nest: h.Nest}
}

func EffectModelToEntity(m *model.Effect) domain.Effect {
	return domain.Effect{
		ID:        m.ID,
		HoboID:    m.HoboID,
		Attribute: domain.HoboAttributeType(m.Attribute),
		Strength:  m.Strength,
		StartTime: t(m.StartTime),
	}
}

func EffectEntityToModel(e *domain.Effect) *model.Effect {
	return &model.Effect{
		ID:        e.ID,
		HoboID:    e.HoboID,
		Attribute: string(e.Attribute),
		Strength:  e.Strength,
		StartTime: t(e.StartTime),
	}
}

func AttackModelToEntity(m *model.Attack) domain.Attack {
	return domain.Attack{
		ID:                   m.ID,
		Departure:            t(m.Departure),
		Arrival:              t(m.Arrival),
		OriginVillageID:      m.OriginVillageID,
		DestinationVillageID: m.DestinationVillageID,
	}
}

func AttackEntityToModel(a *domain.Attack) *model.Attack {
	return &model.Attack{
		ID:                   a.ID,
		Departure:            t(a.Departure),
		Arrival:              t(a.Arrival),
		OriginVillageID:      a.OriginVillageID,
		DestinationVillageID: a.DestinationVillageID,
	}
}

func AbilityModelToEntity(m *model.Ability) *domain.Ability {
	a := &domain.Ability{WorkerID: m.WorkerID, Type: domain.AbilityType(m.AbilityType)}
	if m.LastUsed != nil {
		lu := t(*m.LastUsed)
		a.LastUsed = &lu
	}
	return a
}

func ReportModelToEntity(m *model.VisitReport) domain.VisitReport {
	return domain.VisitReport{
		ID:           m.ID,
		VillageID:    m.VillageID,
		SenderHoboID: m.SenderHoboID,
		Karma:        m.Karma,
		Feathers:     m.Feathers,
		Sticks:       m.Sticks,
		Logs:         m.Logs,
		ReportedAt:   t(m.ReportedAt),
	}
}

func ReportEntityToModel(r *domain.VisitReport) *model.VisitReport {
	return &model.VisitReport{
		ID:           r.ID,
		VillageID:    r.VillageID,
		SenderHoboID: r.SenderHoboID,
		Karma:        r.Karma,
		Feathers:     r.Feathers,
		Sticks:       r.Sticks,
		Logs:         r.Logs,
		ReportedAt:   t(r.ReportedAt),
	}
}
