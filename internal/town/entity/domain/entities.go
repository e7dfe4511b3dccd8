package domain

import "time"

// entity
type Player struct {
	ID    int64
	Karma int64
}

// entity
type Village struct {
	ID       int64
	PlayerID *int64
	X, Y     float64
}

func (v Village) PlayerOwned() bool {
	return v.PlayerID != nil
}

// entity
type Worker struct {
	ID        int64
	VillageID int64
	X, Y      int
	// Speed 格/秒
	Speed float64
	Mana  *int
	Exp   int
	Level int
}

func (w Worker) Pos() TileIndex {
	return TileIndex{X: w.X, Y: w.Y}
}

// HeroLevelExp 从 level 升到下一级需要的经验。
func HeroLevelExp(level int) int {
	return level * 100
}

// AddExp 加经验并按 HeroLevelExp 连续升级。
func (w *Worker) AddExp(n int) {
	w.Exp += n
	for w.Level > 0 && w.Exp >= HeroLevelExp(w.Level) {
		w.Exp -= HeroLevelExp(w.Level)
		w.Level++
	}
}

// entity
type Task struct {
	ID           int64
	WorkerID     int64
	TaskType     TaskType
	X, Y         int
	StartTime    time.Time
	TargetHoboID *int64
}

func (t Task) Pos() TileIndex {
	return TileIndex{X: t.X, Y: t.Y}
}

// entity
type Building struct {
	ID              int64
	VillageID       int64
	X, Y            int
	Type            BuildingType
	Range           *float64
	AttackPower     *int
	AttacksPerCycle *int
	Built           time.Time
}

func (b Building) Pos() TileIndex {
	return TileIndex{X: b.X, Y: b.Y}
}

// IsAura 被动光环：没有攻击频率，但有射程和攻击力。
func (b Building) IsAura() bool {
	return b.AttacksPerCycle == nil && b.Range != nil && b.AttackPower != nil
}

// entity
type Hobo struct {
	ID        int64
	VillageID int64
	HP        int
	Speed     float64
	Hurried   bool
	Nest      *int64
}

func (h Hobo) Settled() bool {
	return h.Nest != nil
}

// entity
type Effect struct {
	ID        int64
	HoboID    int64
	Attribute HoboAttributeType
	Strength  int
	StartTime time.Time
}

// entity
type Attack struct {
	ID                   int64
	Departure            time.Time
	Arrival              time.Time
	OriginVillageID      *int64
	DestinationVillageID int64
}

// entity
type Ability struct {
	WorkerID int64
	Type     AbilityType
	LastUsed *time.Time
}

// entity
type VisitReport struct {
	ID           int64
	VillageID    int64
	SenderHoboID *int64
	Karma        int64
	Feathers     int64
	Sticks       int64
	Logs         int64
	ReportedAt   time.Time
}

// Resources 报告里的资源奖励，按类型列出非零项。
func (r VisitReport) Resources() map[ResourceType]int64 {
	out := make(map[ResourceType]int64, 3)
	if r.Feathers != 0 {
		out[Feathers] = r.Feathers
	}
	if r.Sticks != 0 {
		out[Sticks] = r.Sticks
	}
	if r.Logs != 0 {
		out[Logs] = r.Logs
	}
	return out
}

// AbilityStats 技能参数。
type AbilityStats struct {
	BusyDuration time.Duration
	Cooldown     time.Duration
	ManaCost     int
	Attribute    HoboAttributeType
	Strength     int
}

func (a AbilityType) Stats() AbilityStats {
	switch a {
	case Welcome:
		return AbilityStats{
			BusyDuration: time.Second,
			Cooldown:     30 * time.Second,
			ManaCost:     5,
			Attribute:    AttrHealth,
			Strength:     1,
		}
	}
	return AbilityStats{}
}

// Job 玩家提交的一步任务，校验通过后才会变成带开始时间的 Task。
type Job struct {
	TaskType     TaskType
	X, Y         int
	TargetHoboID *int64
}

func (j Job) Pos() TileIndex {
	return TileIndex{X: j.X, Y: j.Y}
}
