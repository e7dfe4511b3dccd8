package actors

import (
	"time"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/event"
)

// 村庄指令，经 ManagerActor 转发给对应的 VillageActor。

type SubmitTasks struct {
	messages.VillageBaseMessage
	WorkerId int64
	Jobs     []domain.Job
}

// GotoTile 让工人寻路走到目标格并在那里执行 Job。
type GotoTile struct {
	messages.VillageBaseMessage
	WorkerId int64
	Job      domain.Job
}

type PurchaseBuilding struct {
	messages.VillageBaseMessage
	Type domain.BuildingType
	Pos  domain.TileIndex
}

type ResolveAttacks struct {
	messages.VillageBaseMessage
}

type EconomyTick struct {
	messages.VillageBaseMessage
}

type CollectReport struct {
	messages.VillageBaseMessage
	ReportId int64
}

type Snapshot struct {
	messages.VillageBaseMessage
}

// SpawnAttack 由分片 0 的定时器挑选目标后发出。
type SpawnAttack struct {
	messages.VillageBaseMessage
	Travel time.Duration
}

// 调度分片消息。

// ScheduleEvent 把事件交给村庄所在分片的调度器。
type ScheduleEvent struct {
	messages.ShardBaseMessage
	Event event.TimedEvent
}

// AdvanceScheduler 立即推进分片调度器到 Now，应答执行的事件数。
type AdvanceScheduler struct {
	messages.ShardBaseMessage
	Now time.Time
}

// RunTaxCollection 立即收一轮税，应答生成的报告。
type RunTaxCollection struct {
	Seed *int64
}

type pollTick struct{}

func (pollTick) NotInfluenceReceiveTimeout() {}

type economyTick struct{}

func (economyTick) NotInfluenceReceiveTimeout() {}

type combatTick struct{}

func (combatTick) NotInfluenceReceiveTimeout() {}

type spawnTick struct{}

func (spawnTick) NotInfluenceReceiveTimeout() {}
