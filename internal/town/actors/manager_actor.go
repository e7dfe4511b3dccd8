package actors

import (
	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

// ManagerActor 路由：村庄指令转给村庄 actor（按需创建），分片消息转给调度 actor。
// 两类子 actor 都由它 Spawn，调度 actor 的定时消息经它转发到村庄。
type ManagerActor struct {
	town          *service.Town
	cfg           Config
	log           logx.Logger
	villageActors map[int64]*actor.PID
	shards        []*actor.PID
}

func NewManagerActor(town *service.Town, cfg Config, log logx.Logger) *ManagerActor {
	if log == nil {
		log = logx.Nop()
	}
	return &ManagerActor{
		town:          town,
		cfg:           cfg,
		log:           log,
		villageActors: make(map[int64]*actor.PID),
	}
}

func (m *ManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		m.spawnShards(ctx)
	case *actor.Terminated:
		for id, pid := range m.villageActors {
			if pid.Equal(msg.Who) {
				delete(m.villageActors, id)
			}
		}
	case *RunTaxCollection:
		ctx.Forward(m.shard(0))
	case messages.ShardMessage:
		ctx.Forward(m.shard(msg.ShardIndex()))
	case messages.VillageMessage:
		ctx.Forward(m.getOrSpawn(ctx, msg.VillageID()))
	}
}

func (m *ManagerActor) spawnShards(ctx actor.Context) {
	if len(m.shards) > 0 {
		return
	}
	n := m.cfg.shards()
	for i := 0; i < n; i++ {
		idx := i
		props := actor.PropsFromProducer(func() actor.Actor {
			return NewSchedulerActor(idx, m.cfg, m.town, m.log)
		})
		m.shards = append(m.shards, ctx.Spawn(props))
	}
	m.log.Info("scheduler shards started", zap.Int("shards", n))
}

func (m *ManagerActor) shard(i int) *actor.PID {
	if i < 0 || i >= len(m.shards) {
		i = 0
	}
	return m.shards[i]
}

func (m *ManagerActor) getOrSpawn(ctx actor.Context, villageID int64) *actor.PID {
	if pid, ok := m.villageActors[villageID]; ok && pid != nil {
		return pid
	}

	shard := m.shard(messages.ShardOf(villageID, len(m.shards)))
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewVillageActor(villageID, m.town, shard, m.log)
	})
	pid := ctx.Spawn(props)
	m.villageActors[villageID] = pid
	return pid
}
