package memory

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"Paddlers/internal/town/app"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
)

type resKey struct {
	village int64
	res     domain.ResourceType
}

type abilityKey struct {
	worker int64
	typ    domain.AbilityType
}

type data struct {
	players     map[int64]domain.Player
	villages    map[int64]domain.Village
	buildings   map[int64]domain.Building
	workers     map[int64]domain.Worker
	abilities   map[abilityKey]domain.Ability
	tasks       map[int64]domain.Task
	hobos       map[int64]domain.Hobo
	effects     map[int64]domain.Effect
	attacks     map[int64]domain.Attack
	attackHobos map[int64][]int64
	resources   map[resKey]int64
	reports     map[int64]domain.VisitReport
}

func newData() *data {
	return &data{
		players:     map[int64]domain.Player{},
		villages:    map[int64]domain.Village{},
		buildings:   map[int64]domain.Building{},
		workers:     map[int64]domain.Worker{},
		abilities:   map[abilityKey]domain.Ability{},
		tasks:       map[int64]domain.Task{},
		hobos:       map[int64]domain.Hobo{},
		effects:     map[int64]domain.Effect{},
		attacks:     map[int64]domain.Attack{},
		attackHobos: map[int64][]int64{},
		resources:   map[resKey]int64{},
		reports:     map[int64]domain.VisitReport{},
	}
}

func (d *data) clone() *data {
	c := newData()
	copyMap(c.players, d.players)
	copyMap(c.villages, d.villages)
	copyMap(c.buildings, d.buildings)
	copyMap(c.workers, d.workers)
	copyMap(c.abilities, d.abilities)
	copyMap(c.tasks, d.tasks)
	copyMap(c.hobos, d.hobos)
	copyMap(c.effects, d.effects)
	copyMap(c.attacks, d.attacks)
	for k, v := range d.attackHobos {
		c.attackHobos[k] = append([]int64(nil), v...)
	}
	copyMap(c.resources, d.resources)
	copyMap(c.reports, d.reports)
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

// mergeMap 把 tx 相对 base 的改动（新增、修改、删除）应用到 dst，没动过的键保留 dst 的当前值。
func mergeMap[K comparable, V any](dst, base, tx map[K]V) {
	for k := range base {
		if _, ok := tx[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range tx {
		if old, ok := base[k]; !ok || !reflect.DeepEqual(old, v) {
			dst[k] = v
		}
	}
}

// merge 提交事务：只写回事务改过的键，事务期间事务外的写入不会被覆盖。
func (d *data) merge(base, tx *data) {
	mergeMap(d.players, base.players, tx.players)
	mergeMap(d.villages, base.villages, tx.villages)
	mergeMap(d.buildings, base.buildings, tx.buildings)
	mergeMap(d.workers, base.workers, tx.workers)
	mergeMap(d.abilities, base.abilities, tx.abilities)
	mergeMap(d.tasks, base.tasks, tx.tasks)
	mergeMap(d.hobos, base.hobos, tx.hobos)
	mergeMap(d.effects, base.effects, tx.effects)
	mergeMap(d.attacks, base.attacks, tx.attacks)
	mergeMap(d.attackHobos, base.attackHobos, tx.attackHobos)
	mergeMap(d.resources, base.resources, tx.resources)
	mergeMap(d.reports, base.reports, tx.reports)
}

// TownRepository 内存实现，供测试和无数据库的本地运行使用。
// 事务在快照上执行，提交时按键合并回主数据；同一时刻只允许一个事务，id 计数与主数据共用。
type TownRepository struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	ids  *atomic.Int64
	d    *data
}

var _ port.TownStore = (*TownRepository)(nil)

func NewTownRepository() *TownRepository {
	return &TownRepository{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, ids: &atomic.Int64{}, d: newData()}
}

func (r *TownRepository) WithTx(ctx context.Context, fn func(tx port.TownStore) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	base := r.d.clone()
	r.mu.Unlock()

	tx := &TownRepository{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, ids: r.ids, d: base.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.mu.Lock()
	r.d.merge(base, tx.d)
	r.mu.Unlock()
	return nil
}

func (r *TownRepository) lock() func() {
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *TownRepository) newID() int64 {
	return r.ids.Add(1)
}

// ---- 测试/初始化数据 ----

func (r *TownRepository) AddPlayer(p domain.Player) domain.Player {
	defer r.lock()()
	if p.ID == 0 {
		p.ID = r.newID()
	}
	r.d.players[p.ID] = p
	return p
}

func (r *TownRepository) AddVillage(v domain.Village) domain.Village {
	defer r.lock()()
	if v.ID == 0 {
		v.ID = r.newID()
	}
	r.d.villages[v.ID] = v
	return v
}

func (r *TownRepository) AddWorker(w domain.Worker) domain.Worker {
	defer r.lock()()
	if w.ID == 0 {
		w.ID = r.newID()
	}
	r.d.workers[w.ID] = cloneWorker(w)
	return w
}

func (r *TownRepository) AddAbility(a domain.Ability) {
	defer r.lock()()
	r.d.abilities[abilityKey{a.WorkerID, a.Type}] = a
}

func (r *TownRepository) AddTask(t domain.Task) domain.Task {
	defer r.lock()()
	if t.ID == 0 {
		t.ID = r.newID()
	}
	r.d.tasks[t.ID] = t
	return t
}

func (r *TownRepository) SetResource(villageID int64, res domain.ResourceType, v int64) {
	defer r.lock()()
	r.d.resources[resKey{villageID, res}] = v
}

// ---- 读 ----

func (r *TownRepository) Village(ctx context.Context, id int64) (*domain.Village, error) {
	defer r.lock()()
	v, ok := r.d.villages[id]
	if !ok {
		return nil, app.NotFound("village", id)
	}
	return &v, nil
}

func (r *TownRepository) PlayerVillages(ctx context.Context) ([]domain.Village, error) {
	defer r.lock()()
	var out []domain.Village
	for _, v := range r.d.villages {
		if v.PlayerOwned() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) Player(ctx context.Context, id int64) (*domain.Player, error) {
	defer r.lock()()
	p, ok := r.d.players[id]
	if !ok {
		return nil, app.NotFound("player", id)
	}
	return &p, nil
}

func (r *TownRepository) Buildings(ctx context.Context, villageID int64) ([]domain.Building, error) {
	defer r.lock()()
	var out []domain.Building
	for _, b := range r.d.buildings {
		if b.VillageID == villageID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) BuildingAt(ctx context.Context, villageID int64, x, y int) (*domain.Building, error) {
	defer r.lock()()
	for _, b := range r.d.buildings {
		if b.VillageID == villageID && b.X == x && b.Y == y {
			return &b, nil
		}
	}
	return nil, app.NotFound("building", domain.TileIndex{X: x, Y: y}.String())
}

func (r *TownRepository) Worker(ctx context.Context, id int64) (*domain.Worker, error) {
	defer r.lock()()
	w, ok := r.d.workers[id]
	if !ok {
		return nil, app.NotFound("worker", id)
	}
	w = cloneWorker(w)
	return &w, nil
}

func (r *TownRepository) Workers(ctx context.Context, villageID int64) ([]domain.Worker, error) {
	defer r.lock()()
	var out []domain.Worker
	for _, w := range r.d.workers {
		if w.VillageID == villageID {
			out = append(out, cloneWorker(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) AllWorkers(ctx context.Context) ([]domain.Worker, error) {
	defer r.lock()()
	out := make([]domain.Worker, 0, len(r.d.workers))
	for _, w := range r.d.workers {
		out = append(out, cloneWorker(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) WorkerAbility(ctx context.Context, workerID int64, a domain.AbilityType) (*domain.Ability, error) {
	defer r.lock()()
	ab, ok := r.d.abilities[abilityKey{workerID, a}]
	if !ok {
		return nil, app.NotFound("ability", workerID)
	}
	return &ab, nil
}

func (r *TownRepository) Task(ctx context.Context, id int64) (*domain.Task, error) {
	defer r.lock()()
	t, ok := r.d.tasks[id]
	if !ok {
		return nil, app.NotFound("task", id)
	}
	return &t, nil
}

func (r *TownRepository) workerTasks(workerID int64) []domain.Task {
	var out []domain.Task
	for _, t := range r.d.tasks {
		if t.WorkerID == workerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *TownRepository) WorkerTasks(ctx context.Context, workerID int64) ([]domain.Task, error) {
	defer r.lock()()
	return r.workerTasks(workerID), nil
}

func (r *TownRepository) CurrentAndNextTask(ctx context.Context, workerID int64) (*domain.Task, *domain.Task, error) {
	defer r.lock()()
	tasks := r.workerTasks(workerID)
	var cur, next *domain.Task
	if len(tasks) > 0 {
		cur = &tasks[0]
	}
	if len(tasks) > 1 {
		next = &tasks[1]
	}
	return cur, next, nil
}

func (r *TownRepository) CountWorkersAt(ctx context.Context, villageID int64, x, y int, job domain.TaskType) (int, error) {
	defer r.lock()()
	seen := map[int64]struct{}{}
	for _, t := range r.d.tasks {
		w, ok := r.d.workers[t.WorkerID]
		if !ok || w.VillageID != villageID {
			continue
		}
		if t.TaskType == job && t.X == x && t.Y == y {
			seen[t.WorkerID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *TownRepository) CountActiveTasks(ctx context.Context, villageID int64, job domain.TaskType, now time.Time) (int, error) {
	defer r.lock()()
	n := 0
	for _, w := range r.d.workers {
		if w.VillageID != villageID {
			continue
		}
		var active *domain.Task
		for _, t := range r.workerTasks(w.ID) {
			if t.StartTime.After(now) {
				break
			}
			t := t
			active = &t
		}
		if active != nil && active.TaskType == job {
			n++
		}
	}
	return n, nil
}

func (r *TownRepository) Hobo(ctx context.Context, id int64) (*domain.Hobo, error) {
	defer r.lock()()
	h, ok := r.d.hobos[id]
	if !ok {
		return nil, app.NotFound("hobo", id)
	}
	return &h, nil
}

func (r *TownRepository) SettledHobos(ctx context.Context, villageID int64) ([]domain.Hobo, error) {
	defer r.lock()()
	var out []domain.Hobo
	for _, h := range r.d.hobos {
		if h.VillageID == villageID && h.Settled() {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) EffectsOnHobo(ctx context.Context, hoboID int64) ([]domain.Effect, error) {
	defer r.lock()()
	var out []domain.Effect
	for _, e := range r.d.effects {
		if e.HoboID == hoboID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) Attack(ctx context.Context, id int64) (*domain.Attack, error) {
	defer r.lock()()
	a, ok := r.d.attacks[id]
	if !ok {
		return nil, app.NotFound("attack", id)
	}
	return &a, nil
}

func (r *TownRepository) Attacks(ctx context.Context, villageID int64) ([]domain.Attack, error) {
	defer r.lock()()
	var out []domain.Attack
	for _, a := range r.d.attacks {
		if a.DestinationVillageID == villageID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) AllAttacks(ctx context.Context) ([]domain.Attack, error) {
	defer r.lock()()
	out := make([]domain.Attack, 0, len(r.d.attacks))
	for _, a := range r.d.attacks {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) AttackHobos(ctx context.Context, attackID int64) ([]domain.Hobo, error) {
	defer r.lock()()
	var out []domain.Hobo
	for _, id := range r.d.attackHobos[attackID] {
		if h, ok := r.d.hobos[id]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *TownRepository) Resource(ctx context.Context, villageID int64, res domain.ResourceType) (int64, error) {
	defer r.lock()()
	return r.d.resources[resKey{villageID, res}], nil
}

func (r *TownRepository) Resources(ctx context.Context, villageID int64) (map[domain.ResourceType]int64, error) {
	defer r.lock()()
	out := make(map[domain.ResourceType]int64, len(domain.AllResourceTypes))
	for _, res := range domain.AllResourceTypes {
		out[res] = r.d.resources[resKey{villageID, res}]
	}
	return out, nil
}

func (r *TownRepository) Reports(ctx context.Context, villageID int64) ([]domain.VisitReport, error) {
	defer r.lock()()
	var out []domain.VisitReport
	for _, rep := range r.d.reports {
		if rep.VillageID == villageID {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TownRepository) Report(ctx context.Context, id int64) (*domain.VisitReport, error) {
	defer r.lock()()
	rep, ok := r.d.reports[id]
	if !ok {
		return nil, app.NotFound("report", id)
	}
	return &rep, nil
}

// ---- 写 ----

func (r *TownRepository) ReplaceWorkerTasks(ctx context.Context, workerID int64, tasks []domain.Task) ([]domain.Task, error) {
	defer r.lock()()
	for id, t := range r.d.tasks {
		if t.WorkerID == workerID {
			delete(r.d.tasks, id)
		}
	}
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		t.ID = r.newID()
		t.WorkerID = workerID
		r.d.tasks[t.ID] = t
		out[i] = t
	}
	return out, nil
}

func (r *TownRepository) DeleteTask(ctx context.Context, id int64) error {
	defer r.lock()()
	delete(r.d.tasks, id)
	return nil
}

func (r *TownRepository) UpdateWorker(ctx context.Context, w *domain.Worker) error {
	defer r.lock()()
	if _, ok := r.d.workers[w.ID]; !ok {
		return app.NotFound("worker", w.ID)
	}
	r.d.workers[w.ID] = cloneWorker(*w)
	return nil
}

func (r *TownRepository) RecordAbilityUse(ctx context.Context, workerID int64, a domain.AbilityType, at time.Time) error {
	defer r.lock()()
	r.d.abilities[abilityKey{workerID, a}] = domain.Ability{WorkerID: workerID, Type: a, LastUsed: &at}
	return nil
}

func (r *TownRepository) InsertEffect(ctx context.Context, e *domain.Effect) error {
	defer r.lock()()
	e.ID = r.newID()
	r.d.effects[e.ID] = *e
	return nil
}

func (r *TownRepository) InsertHobo(ctx context.Context, h *domain.Hobo) error {
	defer r.lock()()
	if h.ID == 0 {
		h.ID = r.newID()
	}
	r.d.hobos[h.ID] = *h
	return nil
}

func (r *TownRepository) DeleteHobo(ctx context.Context, id int64) error {
	defer r.lock()()
	delete(r.d.hobos, id)
	for eid, e := range r.d.effects {
		if e.HoboID == id {
			delete(r.d.effects, eid)
		}
	}
	for aid, ids := range r.d.attackHobos {
		r.d.attackHobos[aid] = removeID(ids, id)
	}
	return nil
}

func (r *TownRepository) InsertAttack(ctx context.Context, a *domain.Attack, hoboIDs []int64) error {
	defer r.lock()()
	if a.ID == 0 {
		a.ID = r.newID()
	}
	r.d.attacks[a.ID] = *a
	r.d.attackHobos[a.ID] = append([]int64(nil), hoboIDs...)
	return nil
}

func (r *TownRepository) DeleteAttack(ctx context.Context, id int64) error {
	defer r.lock()()
	delete(r.d.attacks, id)
	delete(r.d.attackHobos, id)
	return nil
}

func (r *TownRepository) AdjustResource(ctx context.Context, villageID int64, res domain.ResourceType, delta int64) error {
	defer r.lock()()
	k := resKey{villageID, res}
	if r.d.resources[k]+delta < 0 {
		return app.NotEnough(res)
	}
	r.d.resources[k] += delta
	return nil
}

func (r *TownRepository) InsertBuilding(ctx context.Context, b *domain.Building) error {
	defer r.lock()()
	if b.ID == 0 {
		b.ID = r.newID()
	}
	r.d.buildings[b.ID] = *b
	return nil
}

func (r *TownRepository) DeleteBuilding(ctx context.Context, id int64) error {
	defer r.lock()()
	delete(r.d.buildings, id)
	return nil
}

func (r *TownRepository) InsertReport(ctx context.Context, rep *domain.VisitReport) error {
	defer r.lock()()
	if rep.ID == 0 {
		rep.ID = r.newID()
	}
	r.d.reports[rep.ID] = *rep
	return nil
}

func (r *TownRepository) DeleteReport(ctx context.Context, id int64) error {
	defer r.lock()()
	delete(r.d.reports, id)
	return nil
}

func (r *TownRepository) AddKarma(ctx context.Context, playerID int64, delta int64) error {
	defer r.lock()()
	p, ok := r.d.players[playerID]
	if !ok {
		return app.NotFound("player", playerID)
	}
	p.Karma += delta
	r.d.players[playerID] = p
	return nil
}

func cloneWorker(w domain.Worker) domain.Worker {
	if w.Mana != nil {
		m := *w.Mana
		w.Mana = &m
	}
	return w
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
