package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/mapper"
	"Paddlers/internal/town/infra/persistence/model"
)

// TownRepo port.TownStore 的 gorm 实现，MySQL 线上使用，SQLite 用于本地和测试。
type TownRepo struct {
	db *gorm.DB
}

func NewTownRepo(db *gorm.DB) *TownRepo {
	return &TownRepo{db: db}
}

// AutoMigrate 建表，town migrate 命令调用。
func (r *TownRepo) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(model.All()...)
}

func (r *TownRepo) withDB(tx *gorm.DB) *TownRepo {
	return &TownRepo{db: tx}
}

func (r *TownRepo) WithTx(ctx context.Context, fn func(tx port.TownStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.withDB(tx))
	})
}

// infra 纯技术错误（连接超时等）统一包成 ErrStorage，保留 op 便于定位。
func infra(op string, err error, data map[string]any) error {
	return app.ErrStorage.WithCause(err).WithData("op", op).WithDataMap(data)
}

// first 查单行，不存在映射为 app.NotFound。
func first(op, entity string, id any, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return app.NotFound(entity, id)
	default:
		return infra(op, err, map[string]any{"id": id})
	}
}

// ---- 读 ----

const OpVillage = "repo.town.Village"

func (r *TownRepo) Village(ctx context.Context, id int64) (*domain.Village, error) {
	var m model.Village
	if err := first(OpVillage, "village", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	v := mapper.VillageModelToEntity(&m)
	return &v, nil
}

const OpPlayerVillages = "repo.town.PlayerVillages"

func (r *TownRepo) PlayerVillages(ctx context.Context) ([]domain.Village, error) {
	var ms []model.Village
	if err := r.db.WithContext(ctx).Where("player_id IS NOT NULL").Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpPlayerVillages, err, nil)
	}
	out := make([]domain.Village, len(ms))
	for i := range ms {
		out[i] = mapper.VillageModelToEntity(&ms[i])
	}
	return out, nil
}

const OpPlayer = "repo.town.Player"

func (r *TownRepo) Player(ctx context.Context, id int64) (*domain.Player, error) {
	var m model.Player
	if err := first(OpPlayer, "player", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	return mapper.PlayerModelToEntity(&m), nil
}

const OpBuildings = "repo.town.Buildings"

func (r *TownRepo) Buildings(ctx context.Context, villageID int64) ([]domain.Building, error) {
	var ms []model.Building
	if err := r.db.WithContext(ctx).Where("village_id = ?", villageID).Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpBuildings, err, map[string]any{"village_id": villageID})
	}
	out := make([]domain.Building, len(ms))
	for i := range ms {
		out[i] = mapper.BuildingModelToEntity(&ms[i])
	}
	return out, nil
}

const OpBuildingAt = "repo.town.BuildingAt"

func (r *TownRepo) BuildingAt(ctx context.Context, villageID int64, x, y int) (*domain.Building, error) {
	var m model.Building
	err := r.db.WithContext(ctx).Where("village_id = ? AND x = ? AND y = ?", villageID, x, y).First(&m).Error
	if err := first(OpBuildingAt, "building", domain.TileIndex{X: x, Y: y}.String(), err); err != nil {
		return nil, err
	}
	b := mapper.BuildingModelToEntity(&m)
	return &b, nil
}

const OpWorker = "repo.town.Worker"

func (r *TownRepo) Worker(ctx context.Context, id int64) (*domain.Worker, error) {
	var m model.Worker
	if err := first(OpWorker, "worker", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	w := mapper.WorkerModelToEntity(&m)
	return &w, nil
}

const OpWorkers = "repo.town.Workers"

func (r *TownRepo) Workers(ctx context.Context, villageID int64) ([]domain.Worker, error) {
	return r.findWorkers(ctx, r.db.WithContext(ctx).Where("village_id = ?", villageID))
}

func (r *TownRepo) AllWorkers(ctx context.Context) ([]domain.Worker, error) {
	return r.findWorkers(ctx, r.db.WithContext(ctx))
}

func (r *TownRepo) findWorkers(ctx context.Context, q *gorm.DB) ([]domain.Worker, error) {
	var ms []model.Worker
	if err := q.Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpWorkers, err, nil)
	}
	out := make([]domain.Worker, len(ms))
	for i := range ms {
		out[i] = mapper.WorkerModelToEntity(&ms[i])
	}
	return out, nil
}

const OpWorkerAbility = "repo.town.WorkerAbility"

func (r *TownRepo) WorkerAbility(ctx context.Context, workerID int64, a domain.AbilityType) (*domain.Ability, error) {
	var m model.Ability
	err := r.db.WithContext(ctx).Where("worker_id = ? AND ability_type = ?", workerID, string(a)).First(&m).Error
	if err := first(OpWorkerAbility, "ability", workerID, err); err != nil {
		return nil, err
	}
	return mapper.AbilityModelToEntity(&m), nil
}

const OpTask = "repo.town.Task"

func (r *TownRepo) Task(ctx context.Context, id int64) (*domain.Task, error) {
	var m model.Task
	if err := first(OpTask, "task", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	t := mapper.TaskModelToEntity(&m)
	return &t, nil
}

const OpWorkerTasks = "repo.town.WorkerTasks"

func (r *TownRepo) WorkerTasks(ctx context.Context, workerID int64) ([]domain.Task, error) {
	return r.workerTasks(ctx, workerID, 0)
}

func (r *TownRepo) workerTasks(ctx context.Context, workerID int64, limit int) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Where("worker_id = ?", workerID).Order("start_time").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []model.Task
	if err := q.Find(&ms).Error; err != nil {
		return nil, infra(OpWorkerTasks, err, map[string]any{"worker_id": workerID})
	}
	out := make([]domain.Task, len(ms))
	for i := range ms {
		out[i] = mapper.TaskModelToEntity(&ms[i])
	}
	return out, nil
}

func (r *TownRepo) CurrentAndNextTask(ctx context.Context, workerID int64) (*domain.Task, *domain.Task, error) {
	tasks, err := r.workerTasks(ctx, workerID, 2)
	if err != nil {
		return nil, nil, err
	}
	var cur, next *domain.Task
	if len(tasks) > 0 {
		cur = &tasks[0]
	}
	if len(tasks) > 1 {
		next = &tasks[1]
	}
	return cur, next, nil
}

const OpCountWorkersAt = "repo.town.CountWorkersAt"

func (r *TownRepo) CountWorkersAt(ctx context.Context, villageID int64, x, y int, job domain.TaskType) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Joins("JOIN workers ON workers.id = tasks.worker_id").
		Where("workers.village_id = ? AND tasks.x = ? AND tasks.y = ? AND tasks.task_type = ?", villageID, x, y, string(job)).
		Distinct("tasks.worker_id").
		Count(&n).Error
	if err != nil {
		return 0, infra(OpCountWorkersAt, err, map[string]any{"village_id": villageID, "x": x, "y": y})
	}
	return int(n), nil
}

const OpCountActiveTasks = "repo.town.CountActiveTasks"

// CountActiveTasks 每个工人取 now 之前开始的最晚任务（同一时刻取 id 大的），数其中类型为 job 的。
func (r *TownRepo) CountActiveTasks(ctx context.Context, villageID int64, job domain.TaskType, now time.Time) (int, error) {
	at := domain.Micro(now)
	later := r.db.Table("tasks AS later").
		Select("1").
		Where("later.worker_id = tasks.worker_id AND later.start_time <= ?", at).
		Where("(later.start_time > tasks.start_time OR (later.start_time = tasks.start_time AND later.id > tasks.id))")

	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Joins("JOIN workers ON workers.id = tasks.worker_id").
		Where("workers.village_id = ? AND tasks.start_time <= ? AND tasks.task_type = ?", villageID, at, string(job)).
		Where("NOT EXISTS (?)", later).
		Count(&n).Error
	if err != nil {
		return 0, infra(OpCountActiveTasks, err, map[string]any{"village_id": villageID, "job": string(job)})
	}
	return int(n), nil
}

const OpHobo = "repo.town.Hobo"

func (r *TownRepo) Hobo(ctx context.Context, id int64) (*domain.Hobo, error) {
	var m model.Hobo
	if err := first(OpHobo, "hobo", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	h := mapper.HoboModelToEntity(&m)
	return &h, nil
}

const OpHobos = "repo.town.Hobos"

func (r *TownRepo) SettledHobos(ctx context.Context, villageID int64) ([]domain.Hobo, error) {
	var ms []model.Hobo
	if err := r.db.WithContext(ctx).Where("home = ? AND nest IS NOT NULL", villageID).Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpHobos, err, map[string]any{"village_id": villageID})
	}
	return hobosToEntities(ms), nil
}

func hobosToEntities(ms []model.Hobo) []domain.Hobo {
	out := make([]domain.Hobo, len(ms))
	for i := range ms {
		out[i] = mapper.HoboModelToEntity(&ms[i])
	}
	return out
}

const OpEffects = "repo.town.EffectsOnHobo"

func (r *TownRepo) EffectsOnHobo(ctx context.Context, hoboID int64) ([]domain.Effect, error) {
	var ms []model.Effect
	if err := r.db.WithContext(ctx).Where("hobo_id = ?", hoboID).Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpEffects, err, map[string]any{"hobo_id": hoboID})
	}
	out := make([]domain.Effect, len(ms))
	for i := range ms {
		out[i] = mapper.EffectModelToEntity(&ms[i])
	}
	return out, nil
}

const OpAttack = "repo.town.Attack"

func (r *TownRepo) Attack(ctx context.Context, id int64) (*domain.Attack, error) {
	var m model.Attack
	if err := first(OpAttack, "attack", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	a := mapper.AttackModelToEntity(&m)
	return &a, nil
}

const OpAttacks = "repo.town.Attacks"

func (r *TownRepo) Attacks(ctx context.Context, villageID int64) ([]domain.Attack, error) {
	return r.findAttacks(r.db.WithContext(ctx).Where("destination_village_id = ?", villageID))
}

func (r *TownRepo) AllAttacks(ctx context.Context) ([]domain.Attack, error) {
	return r.findAttacks(r.db.WithContext(ctx))
}

func (r *TownRepo) findAttacks(q *gorm.DB) ([]domain.Attack, error) {
	var ms []model.Attack
	if err := q.Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpAttacks, err, nil)
	}
	out := make([]domain.Attack, len(ms))
	for i := range ms {
		out[i] = mapper.AttackModelToEntity(&ms[i])
	}
	return out, nil
}

func (r *TownRepo) AttackHobos(ctx context.Context, attackID int64) ([]domain.Hobo, error) {
	var ms []model.Hobo
	err := r.db.WithContext(ctx).
		Joins("JOIN attacks_to_hobos ON attacks_to_hobos.hobo_id = hobos.id").
		Where("attacks_to_hobos.attack_id = ?", attackID).
		Order("hobos.id").
		Find(&ms).Error
	if err != nil {
		return nil, infra(OpHobos, err, map[string]any{"attack_id": attackID})
	}
	return hobosToEntities(ms), nil
}

const OpResource = "repo.town.Resource"

func (r *TownRepo) Resource(ctx context.Context, villageID int64, res domain.ResourceType) (int64, error) {
	var m model.Resource
	err := r.db.WithContext(ctx).Where("village_id = ? AND resource_type = ?", villageID, string(res)).First(&m).Error
	switch {
	case err == nil:
		return m.Amount, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	default:
		return 0, infra(OpResource, err, map[string]any{"village_id": villageID, "resource": string(res)})
	}
}

func (r *TownRepo) Resources(ctx context.Context, villageID int64) (map[domain.ResourceType]int64, error) {
	var ms []model.Resource
	if err := r.db.WithContext(ctx).Where("village_id = ?", villageID).Find(&ms).Error; err != nil {
		return nil, infra(OpResource, err, map[string]any{"village_id": villageID})
	}
	out := make(map[domain.ResourceType]int64, len(domain.AllResourceTypes))
	for _, res := range domain.AllResourceTypes {
		out[res] = 0
	}
	for _, m := range ms {
		out[domain.ResourceType(m.ResourceType)] = m.Amount
	}
	return out, nil
}

const OpReports = "repo.town.Reports"

func (r *TownRepo) Reports(ctx context.Context, villageID int64) ([]domain.VisitReport, error) {
	var ms []model.VisitReport
	if err := r.db.WithContext(ctx).Where("village_id = ?", villageID).Order("id").Find(&ms).Error; err != nil {
		return nil, infra(OpReports, err, map[string]any{"village_id": villageID})
	}
	out := make([]domain.VisitReport, len(ms))
	for i := range ms {
		out[i] = mapper.ReportModelToEntity(&ms[i])
	}
	return out, nil
}

func (r *TownRepo) Report(ctx context.Context, id int64) (*domain.VisitReport, error) {
	var m model.VisitReport
	if err := first(OpReports, "report", id, r.db.WithContext(ctx).First(&m, id).Error); err != nil {
		return nil, err
	}
	rep := mapper.ReportModelToEntity(&m)
	return &rep, nil
}

// ---- 写 ----

const OpReplaceWorkerTasks = "repo.town.ReplaceWorkerTasks"

// ReplaceWorkerTasks 调用方负责放进事务，单独调用时删除和插入不是原子的。
func (r *TownRepo) ReplaceWorkerTasks(ctx context.Context, workerID int64, tasks []domain.Task) ([]domain.Task, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("worker_id = ?", workerID).Delete(&model.Task{}).Error; err != nil {
		return nil, infra(OpReplaceWorkerTasks, err, map[string]any{"worker_id": workerID})
	}
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		t.ID = 0
		t.WorkerID = workerID
		m := mapper.TaskEntityToModel(t)
		if err := db.Create(m).Error; err != nil {
			return nil, infra(OpReplaceWorkerTasks, err, map[string]any{"worker_id": workerID})
		}
		out[i] = mapper.TaskModelToEntity(m)
	}
	return out, nil
}

const OpDeleteTask = "repo.town.DeleteTask"

func (r *TownRepo) DeleteTask(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.Task{}, id).Error; err != nil {
		return infra(OpDeleteTask, err, map[string]any{"id": id})
	}
	return nil
}

const OpUpdateWorker = "repo.town.UpdateWorker"

func (r *TownRepo) UpdateWorker(ctx context.Context, w *domain.Worker) error {
	m := mapper.WorkerEntityToModel(w)
	res := r.db.WithContext(ctx).Model(m).Select("x", "y", "speed", "mana", "exp", "level").Updates(m)
	if res.Error != nil {
		return infra(OpUpdateWorker, res.Error, map[string]any{"id": w.ID})
	}
	if res.RowsAffected == 0 {
		// MySQL 值未变化时受影响行数也是 0
		return r.mustExist(ctx, &model.Worker{}, "worker", w.ID)
	}
	return nil
}

func (r *TownRepo) mustExist(ctx context.Context, m any, entity string, id int64) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
		return infra("repo.town.mustExist", err, map[string]any{"entity": entity, "id": id})
	}
	if n == 0 {
		return app.NotFound(entity, id)
	}
	return nil
}

const OpRecordAbilityUse = "repo.town.RecordAbilityUse"

func (r *TownRepo) RecordAbilityUse(ctx context.Context, workerID int64, a domain.AbilityType, at time.Time) error {
	used := domain.Micro(at)
	m := &model.Ability{WorkerID: workerID, AbilityType: string(a), LastUsed: &used}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}, {Name: "ability_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_used"}),
	}).Create(m).Error
	if err != nil {
		return infra(OpRecordAbilityUse, err, map[string]any{"worker_id": workerID})
	}
	return nil
}

const OpInsert = "repo.town.Insert"

func (r *TownRepo) InsertEffect(ctx context.Context, e *domain.Effect) error {
	m := mapper.EffectEntityToModel(e)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "effects"})
	}
	e.ID = m.ID
	return nil
}

func (r *TownRepo) InsertHobo(ctx context.Context, h *domain.Hobo) error {
	m := mapper.HoboEntityToModel(h)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "hobos"})
	}
	h.ID = m.ID
	return nil
}

const OpDelete = "repo.town.Delete"

// DeleteHobo 连带删除作用在它身上的效果和进攻关联。
func (r *TownRepo) DeleteHobo(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("hobo_id = ?", id).Delete(&model.Effect{}).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "effects", "hobo_id": id})
	}
	if err := db.Where("hobo_id = ?", id).Delete(&model.AttackToHobo{}).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "attacks_to_hobos", "hobo_id": id})
	}
	if err := db.Delete(&model.Hobo{}, id).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "hobos", "id": id})
	}
	return nil
}

func (r *TownRepo) InsertAttack(ctx context.Context, a *domain.Attack, hoboIDs []int64) error {
	db := r.db.WithContext(ctx)
	m := mapper.AttackEntityToModel(a)
	if err := db.Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "attacks"})
	}
	a.ID = m.ID
	if len(hoboIDs) == 0 {
		return nil
	}
	links := make([]model.AttackToHobo, len(hoboIDs))
	for i, hid := range hoboIDs {
		links[i] = model.AttackToHobo{AttackID: a.ID, HoboID: hid}
	}
	if err := db.Create(&links).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "attacks_to_hobos", "attack_id": a.ID})
	}
	return nil
}

func (r *TownRepo) DeleteAttack(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("attack_id = ?", id).Delete(&model.AttackToHobo{}).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "attacks_to_hobos", "attack_id": id})
	}
	if err := db.Delete(&model.Attack{}, id).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "attacks", "id": id})
	}
	return nil
}

const OpAdjustResource = "repo.town.AdjustResource"

// AdjustResource 先确保行存在，再用带条件的 UPDATE 保证余额不为负。
func (r *TownRepo) AdjustResource(ctx context.Context, villageID int64, res domain.ResourceType, delta int64) error {
	db := r.db.WithContext(ctx)
	row := &model.Resource{VillageID: villageID, ResourceType: string(res)}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return infra(OpAdjustResource, err, map[string]any{"village_id": villageID, "resource": string(res)})
	}
	if delta == 0 {
		return nil
	}
	upd := db.Model(&model.Resource{}).
		Where("village_id = ? AND resource_type = ? AND amount + ? >= 0", villageID, string(res), delta).
		Update("amount", gorm.Expr("amount + ?", delta))
	if upd.Error != nil {
		return infra(OpAdjustResource, upd.Error, map[string]any{"village_id": villageID, "resource": string(res)})
	}
	if upd.RowsAffected == 0 {
		return app.NotEnough(res)
	}
	return nil
}

func (r *TownRepo) InsertBuilding(ctx context.Context, b *domain.Building) error {
	m := mapper.BuildingEntityToModel(b)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "buildings"})
	}
	b.ID = m.ID
	return nil
}

func (r *TownRepo) DeleteBuilding(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.Building{}, id).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "buildings", "id": id})
	}
	return nil
}

func (r *TownRepo) InsertReport(ctx context.Context, rep *domain.VisitReport) error {
	m := mapper.ReportEntityToModel(rep)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "visit_reports"})
	}
	rep.ID = m.ID
	return nil
}

func (r *TownRepo) DeleteReport(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.VisitReport{}, id).Error; err != nil {
		return infra(OpDelete, err, map[string]any{"table": "visit_reports", "id": id})
	}
	return nil
}

const OpAddKarma = "repo.town.AddKarma"

func (r *TownRepo) AddKarma(ctx context.Context, playerID int64, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Player{}).Where("id = ?", playerID).
		Update("karma", gorm.Expr("karma + ?", delta))
	if res.Error != nil {
		return infra(OpAddKarma, res.Error, map[string]any{"player_id": playerID})
	}
	if res.RowsAffected == 0 {
		return r.mustExist(ctx, &model.Player{}, "player", playerID)
	}
	return nil
}

// ---- 运维/测试用的写入 ----

func (r *TownRepo) CreatePlayer(ctx context.Context, p *domain.Player) error {
	m := &model.Player{ID: p.ID, Karma: p.Karma}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "players"})
	}
	p.ID = m.ID
	return nil
}

func (r *TownRepo) CreateVillage(ctx context.Context, v *domain.Village) error {
	m := mapper.VillageEntityToModel(*v)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "villages"})
	}
	v.ID = m.ID
	return nil
}

func (r *TownRepo) CreateWorker(ctx context.Context, w *domain.Worker) error {
	m := mapper.WorkerEntityToModel(w)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return infra(OpInsert, err, map[string]any{"table": "workers"})
	}
	w.ID = m.ID
	return nil
}

var _ port.TownStore = (*TownRepo)(nil)
