package actors

import (
	"context"
	"errors"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/event"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

type State int

const (
	None State = iota
	Init
	Online
	Offline
	Stopping
)

// VillageActor 串行处理同一个村庄的全部指令和定时任务。
type VillageActor struct {
	state      State
	villageID  int64
	owner      *int64
	town       *service.Town
	shard      *actor.PID
	log        logx.Logger
	dispatcher *Dispatcher
}

func NewVillageActor(villageID int64, town *service.Town, shard *actor.PID, log logx.Logger) *VillageActor {
	return &VillageActor{
		state:      None,
		villageID:  villageID,
		town:       town,
		shard:      shard,
		log:        log.With(zap.Int64("village_id", villageID)),
		dispatcher: NewDispatcher(),
	}
}

func (v *VillageActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		v.state = Init
		v.init(ctx)
		return
	case *actor.Stopping:
		v.state = Stopping
		return
	case *actor.Stopped:
		v.state = Offline
		return
	case *actor.Restarting:
		v.state = Init
		return
	case messages.VillageMessage:
		if msg == nil {
			respond(ctx, messages.Fail(app.ErrInternalServer.WithMsg("nil request")))
			return
		}
		if v.state != Online {
			// 加载失败后每次请求都重试一次
			v.init(ctx)
		}
		if v.state != Online {
			respond(ctx, messages.Fail(app.NotFound("village", v.villageID)))
			return
		}
		if err := v.authorize(msg.PlayerID()); err != nil {
			respond(ctx, messages.Fail(err))
			return
		}
		v.dispatcher.Dispatch(ctx, v, msg)
	default:
		return
	}
}

func (v *VillageActor) init(ctx actor.Context) {
	vil, err := v.town.Store().Village(context.TODO(), v.villageID)
	if err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			logx.ReportError(context.TODO(), v.log, "load_village", err)
		}
		v.state = Offline
		return
	}
	v.owner = vil.PlayerID
	v.state = Online
}

// authorize 玩家只能操作自己的村庄，playerID 为 0 是服务内部调用。
func (v *VillageActor) authorize(playerID int64) error {
	if playerID == 0 {
		return nil
	}
	if v.owner == nil || *v.owner != playerID {
		return app.ErrForbidden
	}
	return nil
}

func (v *VillageActor) VillageID() int64 {
	return v.villageID
}

func (v *VillageActor) Town() *service.Town {
	return v.town
}

// schedule 把后续事件交给本村所在分片的调度器。
func (v *VillageActor) schedule(ctx actor.Context, ev *event.TimedEvent) {
	if ev == nil || v.shard == nil {
		return
	}
	ctx.Send(v.shard, &ScheduleEvent{Event: *ev})
}
