package port

import (
	"context"
	"time"

	"Paddlers/internal/town/entity/domain"
)

// TownStore 村庄模拟依赖的存储协作方。
// 查不到实体时返回 app.ErrNotFound，存储故障返回 app.ErrStorage。
type TownStore interface {
	TownReader
	TownWriter
	// WithTx 在一个事务里执行 fn，fn 返回错误则回滚。
	WithTx(ctx context.Context, fn func(tx TownStore) error) error
}

type TownReader interface {
	Village(ctx context.Context, id int64) (*domain.Village, error)
	PlayerVillages(ctx context.Context) ([]domain.Village, error)
	Player(ctx context.Context, id int64) (*domain.Player, error)

	Buildings(ctx context.Context, villageID int64) ([]domain.Building, error)
	BuildingAt(ctx context.Context, villageID int64, x, y int) (*domain.Building, error)

	Worker(ctx context.Context, id int64) (*domain.Worker, error)
	Workers(ctx context.Context, villageID int64) ([]domain.Worker, error)
	AllWorkers(ctx context.Context) ([]domain.Worker, error)
	WorkerAbility(ctx context.Context, workerID int64, a domain.AbilityType) (*domain.Ability, error)

	Task(ctx context.Context, id int64) (*domain.Task, error)
	// WorkerTasks 按 start_time 升序返回该工人的全部任务。
	WorkerTasks(ctx context.Context, workerID int64) ([]domain.Task, error)
	// CurrentAndNextTask 最早的两个任务，不存在时为 nil。
	CurrentAndNextTask(ctx context.Context, workerID int64) (cur, next *domain.Task, err error)
	// CountWorkersAt 任务队列里有位于 (x,y) 的 job 任务的工人数（去重）。
	CountWorkersAt(ctx context.Context, villageID int64, x, y int, job domain.TaskType) (int, error)
	// CountActiveTasks 正在进行 job 的工人数：每个工人取 now 之前开始的最晚任务。
	CountActiveTasks(ctx context.Context, villageID int64, job domain.TaskType, now time.Time) (int, error)

	Hobo(ctx context.Context, id int64) (*domain.Hobo, error)
	SettledHobos(ctx context.Context, villageID int64) ([]domain.Hobo, error)
	EffectsOnHobo(ctx context.Context, hoboID int64) ([]domain.Effect, error)

	Attack(ctx context.Context, id int64) (*domain.Attack, error)
	Attacks(ctx context.Context, villageID int64) ([]domain.Attack, error)
	AllAttacks(ctx context.Context) ([]domain.Attack, error)
	AttackHobos(ctx context.Context, attackID int64) ([]domain.Hobo, error)

	Resource(ctx context.Context, villageID int64, r domain.ResourceType) (int64, error)
	Resources(ctx context.Context, villageID int64) (map[domain.ResourceType]int64, error)

	Reports(ctx context.Context, villageID int64) ([]domain.VisitReport, error)
	Report(ctx context.Context, id int64) (*domain.VisitReport, error)
}

type TownWriter interface {
	// ReplaceWorkerTasks 清空工人任务队列并写入 tasks，返回带 id 的任务。
	ReplaceWorkerTasks(ctx context.Context, workerID int64, tasks []domain.Task) ([]domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	UpdateWorker(ctx context.Context, w *domain.Worker) error
	RecordAbilityUse(ctx context.Context, workerID int64, a domain.AbilityType, at time.Time) error
	InsertEffect(ctx context.Context, e *domain.Effect) error

	InsertHobo(ctx context.Context, h *domain.Hobo) error
	DeleteHobo(ctx context.Context, id int64) error

	// InsertAttack 写入进攻和参与的 hobo 关联。
	InsertAttack(ctx context.Context, a *domain.Attack, hoboIDs []int64) error
	DeleteAttack(ctx context.Context, id int64) error

	// AdjustResource 按有符号增量调整余额，结果为负时返回 app.NotEnough(r)。
	AdjustResource(ctx context.Context, villageID int64, r domain.ResourceType, delta int64) error

	InsertBuilding(ctx context.Context, b *domain.Building) error
	DeleteBuilding(ctx context.Context, id int64) error

	InsertReport(ctx context.Context, r *domain.VisitReport) error
	DeleteReport(ctx context.Context, id int64) error

	AddKarma(ctx context.Context, playerID int64, delta int64) error
}

// ReportArchive 战报/税收报告的旁路归档，允许丢失，不参与事务。
type ReportArchive interface {
	Archive(r ArchivedReport)
}

type ArchivedReport struct {
	ID        int64
	VillageID int64
	Kind      string
	At        time.Time
	Karma     int64
	Resources map[domain.ResourceType]int64
	Defeated  []int64
	Survivors []int64
	Defence   int
}

// Notifier 向在线客户端推送村庄变化。
type Notifier interface {
	Notify(villageID int64, name string, payload any)
}

// ReportSink 归档的落库端，按 id 覆盖写，重复写入无副作用。
type ReportSink interface {
	SaveReports(ctx context.Context, reports []ArchivedReport) error
}
