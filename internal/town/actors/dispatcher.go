package actors

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/asynkron/protoactor-go/actor"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/app"
)

type handleFunc func(ctx actor.Context, v *VillageActor, req messages.VillageMessage)

// Dispatcher 按消息的具体类型找到村庄处理器，所有村庄 actor 共用一张表。
type Dispatcher struct {
	handlers map[reflect.Type]handleFunc
}

var villageDispatcher = sync.OnceValue(func() *Dispatcher {
	d := &Dispatcher{handlers: make(map[reflect.Type]handleFunc)}
	register(d, VH.HandleSubmitTasks)
	register(d, VH.HandleGotoTile)
	register(d, VH.HandlePurchaseBuilding)
	register(d, VH.HandleResolveAttacks)
	register(d, VH.HandleEconomyTick)
	register(d, VH.HandleCollectReport)
	register(d, VH.HandleSnapshot)
	register(d, VH.HandleSpawnAttack)
	return d
})

func NewDispatcher() *Dispatcher {
	return villageDispatcher()
}

// register 以 Req 的类型为键；同一类型重复注册说明接线写错了。
func register[Req messages.VillageMessage](d *Dispatcher, fn func(ctx actor.Context, v *VillageActor, req Req)) {
	key := reflect.TypeFor[Req]()
	if _, dup := d.handlers[key]; dup {
		panic(fmt.Sprintf("village handler registered twice: %s", key))
	}
	d.handlers[key] = func(ctx actor.Context, v *VillageActor, req messages.VillageMessage) {
		fn(ctx, v, req.(Req))
	}
}

func (d *Dispatcher) Dispatch(ctx actor.Context, v *VillageActor, req messages.VillageMessage) {
	if req == nil {
		respond(ctx, messages.Fail(app.ErrInternalServer.WithMsg("nil request")))
		return
	}
	h, ok := d.handlers[reflect.TypeOf(req)]
	if !ok {
		respond(ctx, messages.Fail(app.ErrInternalServer.WithMsg(fmt.Sprintf("no handler for %T", req))))
		return
	}
	h(ctx, v, req)
}

// respond 只有请求方在等待时才回复，Send 过来的消息直接丢弃应答。
func respond(ctx actor.Context, r *messages.Reply) {
	if ctx.Sender() == nil {
		return
	}
	ctx.Respond(r)
}
