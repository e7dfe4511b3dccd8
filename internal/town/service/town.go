package service

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/modules/kit/logx"
)

// IDGenerator 归档报告等旁路记录的 id 来源，生产环境用 snowflake。
type IDGenerator interface {
	NextID() int64
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() int64 { return s.n.Add(1) }

type nopArchive struct{}

func (nopArchive) Archive(port.ArchivedReport) {}

type nopNotifier struct{}

func (nopNotifier) Notify(int64, string, any) {}

// Town 村庄模拟的全部用例：任务校验、任务结算、战斗、经济、税收、商店。
// 自身无状态，同一村庄的并发由上层 actor 串行化。
type Town struct {
	store    port.TownStore
	clock    domain.Clock
	log      logx.Logger
	archive  port.ReportArchive
	notifier port.Notifier
	ids      IDGenerator
	taxSeed  func() int64
	taxLoc   *time.Location
	rng      *rand.Rand
}

type Option func(*Town)

func WithArchive(a port.ReportArchive) Option {
	return func(t *Town) {
		if a != nil {
			t.archive = a
		}
	}
}

func WithNotifier(n port.Notifier) Option {
	return func(t *Town) {
		if n != nil {
			t.notifier = n
		}
	}
}

func WithIDGenerator(g IDGenerator) Option {
	return func(t *Town) {
		if g != nil {
			t.ids = g
		}
	}
}

// WithTaxSeed 固定税收随机种子，测试用。
func WithTaxSeed(f func() int64) Option {
	return func(t *Town) { t.taxSeed = f }
}

func WithTaxLocation(loc *time.Location) Option {
	return func(t *Town) {
		if loc != nil {
			t.taxLoc = loc
		}
	}
}

// WithRand 进攻生成器使用的随机源。
func WithRand(r *rand.Rand) Option {
	return func(t *Town) {
		if r != nil {
			t.rng = r
		}
	}
}

func NewTown(store port.TownStore, clock domain.Clock, log logx.Logger, opts ...Option) *Town {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logx.Nop()
	}
	t := &Town{
		store:    store,
		clock:    clock,
		log:      log,
		archive:  nopArchive{},
		notifier: nopNotifier{},
		ids:      &seqIDs{},
		taxLoc:   time.UTC,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	t.taxSeed = func() int64 { return int64(rand.IntN(256)) }
	for _, o := range opts {
		o(t)
	}
	return t
}

func (s *Town) Store() port.TownStore {
	return s.store
}

func (s *Town) Now() time.Time {
	return s.clock.Now()
}
