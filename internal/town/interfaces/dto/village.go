package dto

import (
	"time"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/service"
)

// ---- 请求 ----

type JobReq struct {
	TaskType     string `json:"task_type" binding:"required"`
	X            int    `json:"x" binding:"gte=0"`
	Y            int    `json:"y" binding:"gte=0"`
	TargetHoboID *int64 `json:"target_hobo_id,omitempty"`
}

func (j JobReq) ToJob() domain.Job {
	return domain.Job{TaskType: domain.TaskType(j.TaskType), X: j.X, Y: j.Y, TargetHoboID: j.TargetHoboID}
}

type SubmitTasksReq struct {
	Tasks []JobReq `json:"tasks" binding:"required,min=1,max=64,dive"`
}

func (r SubmitTasksReq) Jobs() []domain.Job {
	out := make([]domain.Job, len(r.Tasks))
	for i, j := range r.Tasks {
		out[i] = j.ToJob()
	}
	return out
}

type GotoReq struct {
	JobReq
}

type PurchaseReq struct {
	BuildingType string `json:"building_type" binding:"required"`
	X            int    `json:"x" binding:"gte=0"`
	Y            int    `json:"y" binding:"gte=0"`
}

// VillageURI 路径参数。
type VillageURI struct {
	VillageID int64 `uri:"vid" binding:"required,gt=0"`
}

type WorkerURI struct {
	VillageID int64 `uri:"vid" binding:"required,gt=0"`
	WorkerID  int64 `uri:"wid" binding:"required,gt=0"`
}

type ReportURI struct {
	VillageID int64 `uri:"vid" binding:"required,gt=0"`
	ReportID  int64 `uri:"rid" binding:"required,gt=0"`
}

// ---- 响应 ----

type TaskView struct {
	ID           int64     `json:"id"`
	WorkerID     int64     `json:"worker_id"`
	TaskType     string    `json:"task_type"`
	X            int       `json:"x"`
	Y            int       `json:"y"`
	StartTime    time.Time `json:"start_time"`
	TargetHoboID *int64    `json:"target_hobo_id,omitempty"`
}

func NewTaskViews(ts []domain.Task) []TaskView {
	out := make([]TaskView, len(ts))
	for i, t := range ts {
		out[i] = TaskView{
			ID:           t.ID,
			WorkerID:     t.WorkerID,
			TaskType:     string(t.TaskType),
			X:            t.X,
			Y:            t.Y,
			StartTime:    t.StartTime,
			TargetHoboID: t.TargetHoboID,
		}
	}
	return out
}

type SubmitTasksResp struct {
	Tasks []TaskView `json:"tasks"`
}

func NewSubmitTasksResp(res *service.SubmitResult) SubmitTasksResp {
	if res == nil {
		return SubmitTasksResp{Tasks: []TaskView{}}
	}
	return SubmitTasksResp{Tasks: NewTaskViews(res.Tasks)}
}

type BuildingView struct {
	ID          int64     `json:"id"`
	Type        string    `json:"building_type"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Range       *float64  `json:"range,omitempty"`
	AttackPower *int      `json:"attack_power,omitempty"`
	Built       time.Time `json:"built"`
}

func NewBuildingView(b domain.Building) BuildingView {
	return BuildingView{
		ID:          b.ID,
		Type:        string(b.Type),
		X:           b.X,
		Y:           b.Y,
		Range:       b.Range,
		AttackPower: b.AttackPower,
		Built:       b.Built,
	}
}

type WorkerView struct {
	ID    int64      `json:"id"`
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Speed float64    `json:"speed"`
	Mana  *int       `json:"mana,omitempty"`
	Exp   int        `json:"exp"`
	Level int        `json:"level"`
	Tasks []TaskView `json:"tasks"`
}

type AttackView struct {
	ID      int64     `json:"id"`
	Arrival time.Time `json:"arrival"`
}

type ReportView struct {
	ID         int64     `json:"id"`
	Karma      int64     `json:"karma"`
	Feathers   int64     `json:"feathers"`
	Sticks     int64     `json:"sticks"`
	Logs       int64     `json:"logs"`
	ReportedAt time.Time `json:"reported_at"`
}

func NewReportView(r domain.VisitReport) ReportView {
	return ReportView{
		ID:         r.ID,
		Karma:      r.Karma,
		Feathers:   r.Feathers,
		Sticks:     r.Sticks,
		Logs:       r.Logs,
		ReportedAt: r.ReportedAt,
	}
}

type VillageView struct {
	ID        int64            `json:"id"`
	Resources map[string]int64 `json:"resources"`
	Buildings []BuildingView   `json:"buildings"`
	Workers   []WorkerView     `json:"workers"`
	Attacks   []AttackView     `json:"attacks"`
	Reports   []ReportView     `json:"reports"`
}

func NewVillageView(s *service.VillageSnapshot) VillageView {
	v := VillageView{
		ID:        s.Village.ID,
		Resources: make(map[string]int64, len(s.Resources)),
		Buildings: make([]BuildingView, 0, len(s.Buildings)),
		Workers:   make([]WorkerView, 0, len(s.Workers)),
		Attacks:   make([]AttackView, 0, len(s.Attacks)),
		Reports:   make([]ReportView, 0, len(s.Reports)),
	}
	for k, n := range s.Resources {
		v.Resources[string(k)] = n
	}
	for _, b := range s.Buildings {
		v.Buildings = append(v.Buildings, NewBuildingView(b))
	}
	for _, w := range s.Workers {
		v.Workers = append(v.Workers, WorkerView{
			ID: w.ID, X: w.X, Y: w.Y, Speed: w.Speed, Mana: w.Mana, Exp: w.Exp, Level: w.Level,
			Tasks: NewTaskViews(s.Tasks[w.ID]),
		})
	}
	for _, a := range s.Attacks {
		v.Attacks = append(v.Attacks, AttackView{ID: a.ID, Arrival: a.Arrival})
	}
	for _, r := range s.Reports {
		v.Reports = append(v.Reports, NewReportView(r))
	}
	return v
}

type FightView struct {
	AttackID  int64     `json:"attack_id"`
	Pending   bool      `json:"pending"`
	TriggerAt time.Time `json:"trigger_at,omitempty"`
	Defence   int       `json:"defence"`
	Defeated  []int64   `json:"defeated"`
	Survivors []int64   `json:"survivors"`
	Feathers  int64     `json:"feathers"`
	Karma     int64     `json:"karma"`
}

// NewFightViews 已经被别处结算掉的进攻不返回。
func NewFightViews(outs []*service.FightOutcome) []FightView {
	views := make([]FightView, 0, len(outs))
	for _, o := range outs {
		if o == nil || o.Gone {
			continue
		}
		views = append(views, FightView{
			AttackID:  o.AttackID,
			Pending:   o.Pending,
			TriggerAt: o.TriggerAt,
			Defence:   o.Defence,
			Defeated:  o.Defeated,
			Survivors: o.Survivors,
			Feathers:  o.Feathers,
			Karma:     o.Karma,
		})
	}
	return views
}
