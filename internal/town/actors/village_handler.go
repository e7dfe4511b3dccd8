package actors

import (
	"context"
	"errors"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/app"
	"Paddlers/modules/kit/logx"
	"Paddlers/modules/kit/tracex"
)

type VillageHandler struct{}

// 全局实例
var VH = &VillageHandler{}

func opContext() context.Context {
	return tracex.Ensure(context.Background())
}

func (h *VillageHandler) HandleSubmitTasks(ctx actor.Context, v *VillageActor, req *SubmitTasks) {
	c := opContext()
	if err := v.ownsWorker(c, req.WorkerId); err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	res, err := v.town.SubmitTaskList(c, req.WorkerId, req.Jobs)
	if err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	v.schedule(ctx, res.Follow)
	respond(ctx, messages.OK(res))
}

func (h *VillageHandler) HandleGotoTile(ctx actor.Context, v *VillageActor, req *GotoTile) {
	c := opContext()
	if err := v.ownsWorker(c, req.WorkerId); err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	res, err := v.town.GotoTile(c, req.WorkerId, req.Job)
	if err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	v.schedule(ctx, res.Follow)
	respond(ctx, messages.OK(res))
}

func (h *VillageHandler) HandlePurchaseBuilding(ctx actor.Context, v *VillageActor, req *PurchaseBuilding) {
	b, err := v.town.PurchaseBuilding(opContext(), v.villageID, req.Type, req.Pos, v.town.Now())
	if err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	respond(ctx, messages.OK(b))
}

func (h *VillageHandler) HandleResolveAttacks(ctx actor.Context, v *VillageActor, req *ResolveAttacks) {
	c := opContext()
	outs, err := v.town.ResolveDueAttacks(c, v.villageID, v.town.Now())
	if err != nil {
		logx.ReportError(c, v.log, "resolve_attacks", err)
		respond(ctx, messages.Fail(err))
		return
	}
	respond(ctx, messages.OK(outs))
}

func (h *VillageHandler) HandleEconomyTick(ctx actor.Context, v *VillageActor, req *EconomyTick) {
	c := opContext()
	gained, err := v.town.RunEconomyTick(c, v.villageID, v.town.Now())
	if err != nil {
		logx.ReportError(c, v.log, "economy_tick", err)
		respond(ctx, messages.Fail(err))
		return
	}
	respond(ctx, messages.OK(gained))
}

func (h *VillageHandler) HandleCollectReport(ctx actor.Context, v *VillageActor, req *CollectReport) {
	rep, err := v.town.CollectReport(opContext(), v.villageID, req.ReportId)
	if err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	respond(ctx, messages.OK(rep))
}

func (h *VillageHandler) HandleSnapshot(ctx actor.Context, v *VillageActor, req *Snapshot) {
	snap, err := v.town.Snapshot(opContext(), v.villageID)
	if err != nil {
		respond(ctx, messages.Fail(err))
		return
	}
	respond(ctx, messages.OK(snap))
}

func (h *VillageHandler) HandleSpawnAttack(ctx actor.Context, v *VillageActor, req *SpawnAttack) {
	c := opContext()
	atk, ev, err := v.town.SpawnAnarchistAttack(c, v.villageID, v.town.Now(), req.Travel)
	if err != nil {
		logx.ReportError(c, v.log, "spawn_attack", err)
		respond(ctx, messages.Fail(err))
		return
	}
	v.log.Info("anarchists on their way", zap.Int64("attack_id", atk.ID), zap.Time("arrival", atk.Arrival))
	v.schedule(ctx, ev)
	respond(ctx, messages.OK(atk))
}

// ownsWorker 工人必须属于本村庄；不存在时交给校验器按 NO_WORKER 拒绝。
func (v *VillageActor) ownsWorker(ctx context.Context, workerID int64) error {
	w, err := v.town.Store().Worker(ctx, workerID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return nil
		}
		return err
	}
	if w.VillageID != v.villageID {
		return app.ErrForbidden.WithData("worker_id", workerID)
	}
	return nil
}
