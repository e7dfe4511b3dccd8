package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/shared/transport"
	"Paddlers/internal/town/actors"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/errx"
	"Paddlers/modules/kit/logx"
)

const defaultAskTimeout = 3 * time.Second

var (
	errNotStarted = errx.ErrInternal.WithMsg("actor runtime 未启动")
	errBadReply   = errx.ErrInternal.WithMsg("actor 返回类型非法")
)

type Runtime struct {
	system  *protoactor.ActorSystem
	manager *protoactor.PID
	shards  int
	timeout time.Duration
}

func NewRuntime(town *service.Town, cfg actors.Config, log logx.Logger, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}
	cfg.Shards = max(cfg.Shards, 1)

	system := protoactor.NewActorSystem()
	manager := system.Root.Spawn(protoactor.PropsFromProducer(func() protoactor.Actor {
		return actors.NewManagerActor(town, cfg, log)
	}))
	return &Runtime{system: system, manager: manager, shards: cfg.Shards, timeout: askTimeout}
}

// Shutdown 先停 manager，子 actor 的计时器随之退出，再关 actor 系统。
func (r *Runtime) Shutdown() {
	if r == nil || r.system == nil {
		return
	}
	_ = r.system.Root.StopFuture(r.manager).Wait()
	r.system.Shutdown()
}

// askTimeout 取配置的超时和 ctx 剩余时间中较小的一个。
func (r *Runtime) askTimeout(ctx context.Context) time.Duration {
	d := r.timeout
	if ctx == nil {
		return d
	}
	if deadline, ok := ctx.Deadline(); ok {
		d = min(d, time.Until(deadline))
	}
	return max(d, time.Millisecond)
}

// ask 发请求并取出 Reply 里的值。超时记为 errx.ErrTimeout，其它投递失败记为 errx.ErrUnavailable。
func ask[T any](ctx context.Context, r *Runtime, msg any) (T, error) {
	var zero T
	if r == nil || r.system == nil {
		return zero, errNotStarted
	}
	res, err := r.system.Root.RequestFuture(r.manager, msg, r.askTimeout(ctx)).Result()
	switch {
	case errors.Is(err, protoactor.ErrTimeout):
		return zero, errx.ErrTimeout.WithCause(err)
	case err != nil:
		return zero, errx.ErrUnavailable.WithCause(err)
	}
	reply, ok := res.(*messages.Reply)
	if !ok || reply == nil {
		return zero, errBadReply.WithData("reply", fmt.Sprintf("%T", res))
	}
	if reply.Err != nil {
		return zero, reply.Err
	}
	v, ok := reply.Value.(T)
	if !ok {
		return zero, errBadReply.WithData("value", fmt.Sprintf("%T", reply.Value))
	}
	return v, nil
}

func base(villageID, playerID int64) messages.VillageBaseMessage {
	return messages.VillageBaseMessage{VillageId: villageID, PlayerId: playerID}
}

// 以下 playerID 为 0 表示内部调用，不校验村庄归属。

func (r *Runtime) SubmitTaskList(ctx context.Context, playerID, villageID, workerID int64, jobs []domain.Job) (*service.SubmitResult, error) {
	return ask[*service.SubmitResult](ctx, r, &actors.SubmitTasks{
		VillageBaseMessage: base(villageID, playerID),
		WorkerId:           workerID,
		Jobs:               jobs,
	})
}

func (r *Runtime) GotoTile(ctx context.Context, playerID, villageID, workerID int64, job domain.Job) (*service.SubmitResult, error) {
	return ask[*service.SubmitResult](ctx, r, &actors.GotoTile{
		VillageBaseMessage: base(villageID, playerID),
		WorkerId:           workerID,
		Job:                job,
	})
}

func (r *Runtime) PurchaseBuilding(ctx context.Context, playerID, villageID int64, typ domain.BuildingType, pos domain.TileIndex) (*domain.Building, error) {
	return ask[*domain.Building](ctx, r, &actors.PurchaseBuilding{
		VillageBaseMessage: base(villageID, playerID),
		Type:               typ,
		Pos:                pos,
	})
}

func (r *Runtime) ResolveDueAttacks(ctx context.Context, playerID, villageID int64) ([]*service.FightOutcome, error) {
	return ask[[]*service.FightOutcome](ctx, r, &actors.ResolveAttacks{VillageBaseMessage: base(villageID, playerID)})
}

func (r *Runtime) RunEconomyTick(ctx context.Context, villageID int64) (map[domain.ResourceType]int64, error) {
	return ask[map[domain.ResourceType]int64](ctx, r, &actors.EconomyTick{VillageBaseMessage: base(villageID, 0)})
}

func (r *Runtime) CollectReport(ctx context.Context, playerID, villageID, reportID int64) (*domain.VisitReport, error) {
	return ask[*domain.VisitReport](ctx, r, &actors.CollectReport{
		VillageBaseMessage: base(villageID, playerID),
		ReportId:           reportID,
	})
}

func (r *Runtime) Snapshot(ctx context.Context, playerID, villageID int64) (*service.VillageSnapshot, error) {
	return ask[*service.VillageSnapshot](ctx, r, &actors.Snapshot{VillageBaseMessage: base(villageID, playerID)})
}

// RunTaxCollection seed 为 nil 时随机抽取。
func (r *Runtime) RunTaxCollection(ctx context.Context, seed *int64) ([]domain.VisitReport, error) {
	return ask[[]domain.VisitReport](ctx, r, &actors.RunTaxCollection{Seed: seed})
}

// AdvanceScheduler 把所有分片推进到 now（零值表示当前时间），返回执行的事件总数。
func (r *Runtime) AdvanceScheduler(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for i := 0; i < r.shards; i++ {
		n, err := ask[int](ctx, r, &actors.AdvanceScheduler{
			ShardBaseMessage: messages.ShardBaseMessage{Shard: i},
			Now:              now,
		})
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// CodeFromError 把错误映射成响应体里的业务码。
func CodeFromError(err error) int {
	if err == nil {
		return transport.OK
	}
	switch errx.CodeOf(err) {
	case app.CodeTaskRejected:
		return transport.TaskRejected
	case app.CodeNotEnoughResource:
		return transport.NotEnoughResource
	case app.CodePurchaseRejected:
		return transport.PurchaseRejected
	case app.CodeNotFound:
		return transport.NotFound
	case app.CodeForbidden:
		return transport.Forbidden
	default:
		return transport.SystemError
	}
}
