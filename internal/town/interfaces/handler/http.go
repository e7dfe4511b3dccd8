package handler

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Paddlers/internal/shared/transport"
	"Paddlers/internal/shared/transport/http/middleware"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/interfaces/dto"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

// VillageRuntime 处理器依赖的命令面，由 actor.Runtime 实现。
type VillageRuntime interface {
	SubmitTaskList(ctx context.Context, playerID, villageID, workerID int64, jobs []domain.Job) (*service.SubmitResult, error)
	GotoTile(ctx context.Context, playerID, villageID, workerID int64, job domain.Job) (*service.SubmitResult, error)
	PurchaseBuilding(ctx context.Context, playerID, villageID int64, typ domain.BuildingType, pos domain.TileIndex) (*domain.Building, error)
	ResolveDueAttacks(ctx context.Context, playerID, villageID int64) ([]*service.FightOutcome, error)
	CollectReport(ctx context.Context, playerID, villageID, reportID int64) (*domain.VisitReport, error)
	Snapshot(ctx context.Context, playerID, villageID int64) (*service.VillageSnapshot, error)
}

type HttpHandler struct {
	rt  VillageRuntime
	log logx.Logger
	// Limiter 每个玩家的指令限流，nil 不限；与 WS 指令共用同一个
	Limiter *transport.PlayerLimiter
}

func NewHttpHandler(rt VillageRuntime, log logx.Logger) *HttpHandler {
	if log == nil {
		log = logx.Nop()
	}
	return &HttpHandler{rt: rt, log: log}
}

func (h *HttpHandler) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/villages", middleware.Auth(), middleware.RateLimit(h.Limiter), tagVillage)
	g.GET("/:vid", h.GetVillage)
	g.POST("/:vid/workers/:wid/tasks", h.SubmitTasks)
	g.POST("/:vid/workers/:wid/goto", h.Goto)
	g.POST("/:vid/buildings", h.PurchaseBuilding)
	g.POST("/:vid/attacks/resolve", h.ResolveAttacks)
	g.POST("/:vid/reports/:rid/collect", h.CollectReport)
}

// tagVillage 把路径里的村庄 id 记进访问日志。
func tagVillage(c *gin.Context) {
	if vid, err := strconv.ParseInt(c.Param("vid"), 10, 64); err == nil {
		transport.SetVillage(c.Request.Context(), vid)
	}
	c.Next()
}

func (h *HttpHandler) GetVillage(c *gin.Context) {
	var uri dto.VillageURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c)
		return
	}
	snap, err := h.rt.Snapshot(c.Request.Context(), middleware.PlayerID(c), uri.VillageID)
	if err != nil {
		h.error(c, "village.snapshot", err)
		return
	}
	h.ok(c, dto.NewVillageView(snap))
}

func (h *HttpHandler) SubmitTasks(c *gin.Context) {
	var uri dto.WorkerURI
	var req dto.SubmitTasksReq
	if c.ShouldBindUri(&uri) != nil || c.ShouldBindJSON(&req) != nil {
		h.invalid(c)
		return
	}
	res, err := h.rt.SubmitTaskList(c.Request.Context(), middleware.PlayerID(c), uri.VillageID, uri.WorkerID, req.Jobs())
	if err != nil {
		h.error(c, "village.submit_tasks", err)
		return
	}
	h.ok(c, dto.NewSubmitTasksResp(res))
}

func (h *HttpHandler) Goto(c *gin.Context) {
	var uri dto.WorkerURI
	var req dto.GotoReq
	if c.ShouldBindUri(&uri) != nil || c.ShouldBindJSON(&req) != nil {
		h.invalid(c)
		return
	}
	res, err := h.rt.GotoTile(c.Request.Context(), middleware.PlayerID(c), uri.VillageID, uri.WorkerID, req.ToJob())
	if err != nil {
		h.error(c, "village.goto", err)
		return
	}
	h.ok(c, dto.NewSubmitTasksResp(res))
}

func (h *HttpHandler) PurchaseBuilding(c *gin.Context) {
	var uri dto.VillageURI
	var req dto.PurchaseReq
	if c.ShouldBindUri(&uri) != nil || c.ShouldBindJSON(&req) != nil {
		h.invalid(c)
		return
	}
	b, err := h.rt.PurchaseBuilding(c.Request.Context(), middleware.PlayerID(c), uri.VillageID,
		domain.BuildingType(req.BuildingType), domain.TileIndex{X: req.X, Y: req.Y})
	if err != nil {
		h.error(c, "village.purchase", err)
		return
	}
	h.ok(c, dto.NewBuildingView(*b))
}

func (h *HttpHandler) ResolveAttacks(c *gin.Context) {
	var uri dto.VillageURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c)
		return
	}
	outs, err := h.rt.ResolveDueAttacks(c.Request.Context(), middleware.PlayerID(c), uri.VillageID)
	if err != nil {
		h.error(c, "village.resolve_attacks", err)
		return
	}
	h.ok(c, dto.NewFightViews(outs))
}

func (h *HttpHandler) CollectReport(c *gin.Context) {
	var uri dto.ReportURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c)
		return
	}
	rep, err := h.rt.CollectReport(c.Request.Context(), middleware.PlayerID(c), uri.VillageID, uri.ReportID)
	if err != nil {
		h.error(c, "village.collect_report", err)
		return
	}
	h.ok(c, dto.NewReportView(*rep))
}

// ============ Response Helpers ============

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, transport.Success(data))
}

func (h *HttpHandler) invalid(c *gin.Context) {
	c.JSON(nethttp.StatusBadRequest, transport.Error(transport.InvalidParam, "参数有误"))
}

func (h *HttpHandler) error(c *gin.Context, action string, err error) {
	f := mapError(c.Request.Context(), h.log, action, err)
	resp := transport.Error(f.code, f.msg)
	if len(f.data) > 0 {
		resp.Data = f.data
	}
	c.JSON(f.status, resp)
}
