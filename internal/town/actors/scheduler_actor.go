package actors

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Paddlers/internal/shared/actor/messages"
	"Paddlers/internal/town/app"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/scheduler"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

// Config 模拟循环节奏，取自 sim 配置段。
type Config struct {
	Shards              int
	PollInterval        time.Duration
	EconomyInterval     time.Duration
	CombatInterval      time.Duration
	AttackSpawnInterval time.Duration
	AttackTravel        time.Duration
}

func (c Config) shards() int {
	if c.Shards < 1 {
		return 1
	}
	return c.Shards
}

// SchedulerActor 独占一个分片的事件调度器。只有分片 0 负责全服收税和生成进攻。
type SchedulerActor struct {
	state     State
	index     int
	cfg       Config
	town      *service.Town
	scheduler *scheduler.Scheduler
	log       logx.Logger
	loopStops []chan struct{}
}

func NewSchedulerActor(index int, cfg Config, town *service.Town, log logx.Logger) *SchedulerActor {
	log = log.With(zap.Int("shard", index))
	return &SchedulerActor{
		state:     None,
		index:     index,
		cfg:       cfg,
		town:      town,
		scheduler: scheduler.New(service.NewExecutor(town), log),
		log:       log,
	}
}

func (s *SchedulerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		s.state = Init
		s.init(ctx)
		return
	case *actor.Stopping:
		s.stopLoops()
		s.state = Stopping
		return
	case *actor.Stopped:
		s.stopLoops()
		s.state = Offline
		return
	case *actor.Restarting:
		s.stopLoops()
		s.state = Init
		return
	case pollTick:
		if s.state != Online {
			return
		}
		s.scheduler.Advance(opContext(), s.town.Now())
		return
	case economyTick:
		s.fanOut(ctx, func(vid int64) messages.VillageMessage {
			return &EconomyTick{VillageBaseMessage: messages.VillageBaseMessage{VillageId: vid}}
		})
		return
	case combatTick:
		s.fanOut(ctx, func(vid int64) messages.VillageMessage {
			return &ResolveAttacks{VillageBaseMessage: messages.VillageBaseMessage{VillageId: vid}}
		})
		return
	case spawnTick:
		s.spawnAttack(ctx)
		return
	case *ScheduleEvent:
		s.scheduler.Add(msg.Event.Event, msg.Event.At)
		return
	case *AdvanceScheduler:
		now := msg.Now
		if now.IsZero() {
			now = s.town.Now()
		}
		n := s.scheduler.Advance(opContext(), now)
		respond(ctx, messages.OK(n))
		return
	case *RunTaxCollection:
		c := opContext()
		seed := int64(-1)
		if msg.Seed != nil {
			seed = *msg.Seed
		}
		reports, err := s.runTaxes(c, seed)
		if err != nil {
			respond(ctx, messages.Fail(err))
			return
		}
		respond(ctx, messages.OK(reports))
		return
	default:
		return
	}
}

func (s *SchedulerActor) init(ctx actor.Context) {
	c := opContext()
	now := s.town.Now()
	n := s.cfg.shards()
	err := s.scheduler.Bootstrap(c, s.town.Store(), scheduler.BootstrapOptions{
		Owns:      func(vid int64) bool { return messages.ShardOf(vid, n) == s.index },
		WithTaxes: s.index == 0,
		TaxAt:     s.town.NextTaxAt(now),
	})
	if err != nil {
		// 恢复失败也继续运行，新提交的任务照常调度
		logx.ReportError(c, s.log, "scheduler_bootstrap", err)
	}
	s.state = Online

	s.startLoop(ctx, s.cfg.PollInterval, pollTick{})
	s.startLoop(ctx, s.cfg.EconomyInterval, economyTick{})
	s.startLoop(ctx, s.cfg.CombatInterval, combatTick{})
	if s.index == 0 {
		s.startLoop(ctx, s.cfg.AttackSpawnInterval, spawnTick{})
	}
}

// fanOut 给本分片的每个玩家村庄发一条定时消息，由村庄 actor 串行执行。
func (s *SchedulerActor) fanOut(ctx actor.Context, build func(villageID int64) messages.VillageMessage) {
	if s.state != Online || ctx.Parent() == nil {
		return
	}
	c := opContext()
	villages, err := s.town.Store().PlayerVillages(c)
	if err != nil {
		logx.ReportError(c, s.log, "list_villages", err)
		return
	}
	n := s.cfg.shards()
	for _, v := range villages {
		if messages.ShardOf(v.ID, n) != s.index {
			continue
		}
		ctx.Send(ctx.Parent(), build(v.ID))
	}
}

func (s *SchedulerActor) spawnAttack(ctx actor.Context) {
	if s.state != Online || ctx.Parent() == nil {
		return
	}
	c := opContext()
	vid, ok, err := s.town.PickAttackTarget(c)
	if err != nil {
		logx.ReportError(c, s.log, "pick_attack_target", err)
		return
	}
	if !ok {
		return
	}
	ctx.Send(ctx.Parent(), &SpawnAttack{
		VillageBaseMessage: messages.VillageBaseMessage{VillageId: vid},
		Travel:             s.cfg.AttackTravel,
	})
}

// runTaxes 手动收税；seed < 0 时随机。
func (s *SchedulerActor) runTaxes(ctx context.Context, seed int64) ([]domain.VisitReport, error) {
	if s.index != 0 {
		return nil, app.ErrInternalServer.WithMsg("taxes run on shard 0 only")
	}
	if seed < 0 {
		return s.town.RunTaxCollection(ctx, s.town.TaxSeed(), s.town.Now())
	}
	return s.town.RunTaxCollection(ctx, seed, s.town.Now())
}

// startLoop 独立 goroutine 按间隔给自己发 tick，间隔 <= 0 时不启动。
func (s *SchedulerActor) startLoop(ctx actor.Context, every time.Duration, tick any) {
	if every <= 0 {
		return
	}
	stop := make(chan struct{})
	s.loopStops = append(s.loopStops, stop)
	self := ctx.Self()
	root := ctx.ActorSystem().Root

	go func(stop <-chan struct{}, every time.Duration) {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				root.Send(self, tick)
			case <-stop:
				return
			}
		}
	}(stop, every)
}

func (s *SchedulerActor) stopLoops() {
	for _, stop := range s.loopStops {
		close(stop)
	}
	s.loopStops = nil
}
