package model

import "time"

// model
type Player struct {
	ID    int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Karma int64 `gorm:"column:karma;not null;default:0;comment:善缘" json:"karma"`
}

func (Player) TableName() string { return "players" }

// model
type Village struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PlayerID *int64  `gorm:"column:player_id;index;comment:为空表示非玩家村庄" json:"player_id"`
	X        float64 `gorm:"column:x;not null" json:"x"`
	Y        float64 `gorm:"column:y;not null" json:"y"`
}

func (Village) TableName() string { return "villages" }

// model
type Worker struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	VillageID int64   `gorm:"column:village_id;index;not null" json:"village_id"`
	X         int     `gorm:"column:x;not null" json:"x"`
	Y         int     `gorm:"column:y;not null" json:"y"`
	Speed     float64 `gorm:"column:speed;not null;comment:格/秒" json:"speed"`
	Mana      *int    `gorm:"column:mana" json:"mana"`
	Exp       int     `gorm:"column:exp;not null;default:0" json:"exp"`
	Level     int     `gorm:"column:level;not null;default:1" json:"level"`
}

func (Worker) TableName() string { return "workers" }

// model
type Task struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WorkerID     int64     `gorm:"column:worker_id;index:idx_task_worker_start,priority:1;not null" json:"worker_id"`
	TaskType     string    `gorm:"column:task_type;type:varchar(32);not null" json:"task_type"`
	X            int       `gorm:"column:x;not null" json:"x"`
	Y            int       `gorm:"column:y;not null" json:"y"`
	StartTime    time.Time `gorm:"column:start_time;precision:6;index:idx_task_worker_start,priority:2;not null" json:"start_time"`
	TargetHoboID *int64    `gorm:"column:target_hobo_id" json:"target_hobo_id"`
}

func (Task) TableName() string { return "tasks" }

// model
type Building struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	VillageID       int64     `gorm:"column:village_id;uniqueIndex:uk_building_tile,priority:1;not null" json:"village_id"`
	X               int       `gorm:"column:x;uniqueIndex:uk_building_tile,priority:2;not null" json:"x"`
	Y               int       `gorm:"column:y;uniqueIndex:uk_building_tile,priority:3;not null" json:"y"`
	BuildingType    string    `gorm:"column:building_type;type:varchar(32);not null" json:"building_type"`
	BuildingRange   *float64  `gorm:"column:building_range" json:"building_range"`
	AttackPower     *int      `gorm:"column:attack_power" json:"attack_power"`
	AttacksPerCycle *int      `gorm:"column:attacks_per_cycle" json:"attacks_per_cycle"`
	Creation        time.Time `gorm:"column:creation;precision:6;not null" json:"creation"`
}

func (Building) TableName() string { return "buildings" }

// model
type Hobo struct {
	ID      int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	HomeID  int64   `gorm:"column:home;index;not null" json:"home"`
	HP      int     `gorm:"column:hp;not null" json:"hp"`
	Speed   float64 `gorm:"column:speed;not null" json:"speed"`
	Hurried bool    `gorm:"column:hurried;not null" json:"hurried"`
	Nest    *int64  `gorm:"column:nest;comment:非空表示已定居" json:"nest"`
}

func (Hobo) TableName() string { return "hobos" }

// model
type Effect struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	HoboID    int64     `gorm:"column:hobo_id;index;not null" json:"hobo_id"`
	Attribute string    `gorm:"column:attribute;type:varchar(16);not null" json:"attribute"`
	Strength  int       `gorm:"column:strength;not null" json:"strength"`
	StartTime time.Time `gorm:"column:start_time;precision:6;not null" json:"start_time"`
}

func (Effect) TableName() string { return "effects" }

// model
type Attack struct {
	ID                   int64     `gorm:"column:id;primaryKey" json:"id"`
	Departure            time.Time `gorm:"column:departure;precision:6;not null" json:"departure"`
	Arrival              time.Time `gorm:"column:arrival;precision:6;not null" json:"arrival"`
	OriginVillageID      *int64    `gorm:"column:origin_village_id" json:"origin_village_id"`
	DestinationVillageID int64     `gorm:"column:destination_village_id;index;not null" json:"destination_village_id"`
}

func (Attack) TableName() string { return "attacks" }

// model
type AttackToHobo struct {
	AttackID int64 `gorm:"column:attack_id;primaryKey;autoIncrement:false" json:"attack_id"`
	HoboID   int64 `gorm:"column:hobo_id;primaryKey;autoIncrement:false" json:"hobo_id"`
}

func (AttackToHobo) TableName() string { return "attacks_to_hobos" }

// model
type Resource struct {
	VillageID    int64  `gorm:"column:village_id;primaryKey;autoIncrement:false" json:"village_id"`
	ResourceType string `gorm:"column:resource_type;type:varchar(16);primaryKey" json:"resource_type"`
	Amount       int64  `gorm:"column:amount;not null;default:0" json:"amount"`
}

func (Resource) TableName() string { return "resources" }

// model
type Ability struct {
	WorkerID    int64      `gorm:"column:worker_id;primaryKey;autoIncrement:false" json:"worker_id"`
	AbilityType string     `gorm:"column:ability_type;type:varchar(16);primaryKey" json:"ability_type"`
	LastUsed    *time.Time `gorm:"column:last_used;precision:6" json:"last_used"`
}

func (Ability) TableName() string { return "abilities" }

// model
type VisitReport struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	VillageID    int64     `gorm:"column:village_id;index;not null" json:"village_id"`
	SenderHoboID *int64    `gorm:"column:sender_hobo_id" json:"sender_hobo_id"`
	Karma        int64     `gorm:"column:karma;not null" json:"karma"`
	Feathers     int64     `gorm:"column:feathers;not null;default:0" json:"feathers"`
	Sticks       int64     `gorm:"column:sticks;not null;default:0" json:"sticks"`
	Logs         int64     `gorm:"column:logs;not null;default:0" json:"logs"`
	ReportedAt   time.Time `gorm:"column:reported;precision:6;not null" json:"reported"`
}

func (VisitReport) TableName() string { return "visit_reports" }

// All AutoMigrate 用的全部表。
func All() []any {
	return []any{
		&Player{}, &Village{}, &Worker{}, &Task{}, &Building{}, &Hobo{}, &Effect{},
		&Attack{}, &AttackToHobo{}, &Resource{}, &Ability{}, &VisitReport{},
	}
}
