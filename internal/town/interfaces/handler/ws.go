package handler

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Paddlers/internal/shared/transport"
	"Paddlers/internal/shared/transport/http/middleware"
	"Paddlers/internal/shared/transport/ws"
	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/interfaces/dto"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

// VillageFeed 把模拟产生的变化推给订阅该村庄的连接。
type VillageFeed struct {
	hub *ws.Hub
}

func NewVillageFeed(hub *ws.Hub) *VillageFeed {
	return &VillageFeed{hub: hub}
}

func (f *VillageFeed) Notify(villageID int64, name string, payload any) {
	f.hub.Broadcast(villageID, name, feedView(payload))
}

var _ port.Notifier = (*VillageFeed)(nil)

func feedView(payload any) any {
	switch v := payload.(type) {
	case []domain.Task:
		return dto.NewTaskViews(v)
	case *domain.Building:
		return dto.NewBuildingView(*v)
	case domain.VisitReport:
		return dto.NewReportView(v)
	case *service.FightOutcome:
		views := dto.NewFightViews([]*service.FightOutcome{v})
		if len(views) == 0 {
			return nil
		}
		return views[0]
	case *domain.Attack:
		return dto.AttackView{ID: v.ID, Arrival: v.Arrival}
	case map[domain.ResourceType]int64:
		out := make(map[string]int64, len(v))
		for k, n := range v {
			out[string(k)] = n
		}
		return out
	default:
		return payload
	}
}

// WsHandler 村庄推送通道 /ws/villages/:vid，连接上也能发查询和任务指令。
type WsHandler struct {
	rt  VillageRuntime
	srv *ws.Server
	hub *ws.Hub
	log logx.Logger
	// Limiter 连接上的指令限流，nil 不限
	Limiter *transport.PlayerLimiter
}

func NewWsHandler(rt VillageRuntime, hub *ws.Hub, outBuffer int, encrypt bool, log logx.Logger) *WsHandler {
	if log == nil {
		log = logx.Nop()
	}
	h := &WsHandler{rt: rt, hub: hub, log: log}
	router := ws.NewRouter(log)
	router.Use(h.limit)
	h.RegisterRoutes(router)
	h.srv = ws.NewServer(router, outBuffer, encrypt, log)
	return h
}

func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	g := r.Group("village")
	g.Handle("snapshot", h.Snapshot)
	g.Handle("tasks", h.SubmitTasks)
}

func (h *WsHandler) limit(next ws.HandlerFunc) ws.HandlerFunc {
	return ws.RateLimit(h.Limiter)(next)
}

// Mount 握手前先鉴权并确认玩家拥有该村庄。
func (h *WsHandler) Mount(e *gin.Engine) {
	e.GET("/ws/villages/:vid", middleware.Auth(), h.Upgrade)
}

func (h *WsHandler) Upgrade(c *gin.Context) {
	var uri dto.VillageURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(nethttp.StatusBadRequest, transport.Error(transport.InvalidParam, "参数有误"))
		return
	}
	pid := middleware.PlayerID(c)
	if _, err := h.rt.Snapshot(c.Request.Context(), pid, uri.VillageID); err != nil {
		f := mapError(c.Request.Context(), h.log, "ws.upgrade", err)
		c.JSON(f.status, transport.Error(f.code, f.msg))
		return
	}
	conn, err := h.srv.Upgrade(c.Writer, c.Request, map[string]any{
		ws.ConnKeyPlayer: pid,
		ws.ConnKeyTopic:  uri.VillageID,
	})
	if err != nil {
		return
	}
	h.hub.Join(uri.VillageID, conn)
	h.log.Info("village feed joined", zap.Int64("village_id", uri.VillageID), zap.Int64("player_id", pid))
}

func connIDs(conn ws.WSConn) (playerID, villageID int64) {
	playerID, _ = conn.GetProperty(ws.ConnKeyPlayer).(int64)
	villageID, _ = conn.GetProperty(ws.ConnKeyTopic).(int64)
	return playerID, villageID
}

func (h *WsHandler) Snapshot(ctx context.Context, req *ws.WsMsgReq, resp *ws.WsMsgResp) {
	pid, vid := connIDs(req.Conn)
	snap, err := h.rt.Snapshot(ctx, pid, vid)
	if err != nil {
		h.fail(ctx, resp, "ws.snapshot", err)
		return
	}
	resp.Body.Code = transport.OK
	resp.Body.Msg = dto.NewVillageView(snap)
}

type wsTasksReq struct {
	WorkerID int64        `json:"worker_id"`
	Tasks    []dto.JobReq `json:"tasks"`
}

func (h *WsHandler) SubmitTasks(ctx context.Context, req *ws.WsMsgReq, resp *ws.WsMsgResp) {
	var in wsTasksReq
	if err := ws.BindJSON(req, &in); err != nil || in.WorkerID <= 0 || len(in.Tasks) == 0 {
		resp.Body.Code = transport.InvalidParam
		resp.Body.Msg = "参数有误"
		return
	}
	pid, vid := connIDs(req.Conn)
	res, err := h.rt.SubmitTaskList(ctx, pid, vid, in.WorkerID, dto.SubmitTasksReq{Tasks: in.Tasks}.Jobs())
	if err != nil {
		h.fail(ctx, resp, "ws.submit_tasks", err)
		return
	}
	resp.Body.Code = transport.OK
	resp.Body.Msg = dto.NewSubmitTasksResp(res)
}

func (h *WsHandler) fail(ctx context.Context, resp *ws.WsMsgResp, action string, err error) {
	f := mapError(ctx, h.log, action, err)
	resp.Body.Code = f.code
	resp.Body.Msg = f.msg
}
