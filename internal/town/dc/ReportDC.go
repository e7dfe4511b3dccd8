package dc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Paddlers/internal/town/app/port"
	"Paddlers/modules/kit/errx"
	"Paddlers/modules/kit/logx"
)

// ReportDC 报告归档的写回缓冲：Archive 只入队，后台协程按批落库。
type ReportDC struct {
	sink       port.ReportSink
	log        logx.Logger
	flushEvery time.Duration
	batchSize  int
	retryDelay time.Duration

	mu      sync.Mutex
	pending map[int64]port.ArchivedReport
	order   []int64
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type Option func(*ReportDC)

func WithFlushEvery(d time.Duration) Option {
	return func(dc *ReportDC) {
		if d > 0 {
			dc.flushEvery = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(dc *ReportDC) {
		if n > 0 {
			dc.batchSize = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(dc *ReportDC) { dc.retryDelay = d }
}

func NewReportDC(sink port.ReportSink, log logx.Logger, opts ...Option) *ReportDC {
	if log == nil {
		log = logx.Nop()
	}
	d := &ReportDC{
		sink:       sink,
		log:        log,
		flushEvery: 2 * time.Second,
		batchSize:  256,
		retryDelay: 200 * time.Millisecond,
		pending:    make(map[int64]port.ArchivedReport),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	go d.writerLoop()
	return d
}

// Archive 同 id 的报告只保留最后一次。关闭后丢弃。
func (d *ReportDC) Archive(r port.ArchivedReport) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if _, ok := d.pending[r.ID]; !ok {
		d.order = append(d.order, r.ID)
	}
	d.pending[r.ID] = r
	full := len(d.order) >= d.batchSize
	d.mu.Unlock()

	if full {
		d.signal()
	}
}

func (d *ReportDC) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Flush 唤醒写协程，不等待落库完成。
func (d *ReportDC) Flush() {
	d.signal()
}

func (d *ReportDC) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *ReportDC) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *ReportDC) popBatch() []port.ArchivedReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := min(len(d.order), d.batchSize)
	if n == 0 {
		return nil
	}
	batch := make([]port.ArchivedReport, 0, n)
	for _, id := range d.order[:n] {
		batch = append(batch, d.pending[id])
		delete(d.pending, id)
	}
	d.order = d.order[n:]
	return batch
}

// requeue 失败的批次放回队首；期间又写入的同 id 报告更新，保留新的。
func (d *ReportDC) requeue(batch []port.ArchivedReport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int64, 0, len(batch))
	for _, r := range batch {
		if _, ok := d.pending[r.ID]; ok {
			continue
		}
		d.pending[r.ID] = r
		ids = append(ids, r.ID)
	}
	d.order = append(ids, d.order...)
}

func (d *ReportDC) writerLoop() {
	defer close(d.done)

	ticker := time.NewTicker(d.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.consumePending(false)
		case <-d.wake:
			d.consumePending(false)
		case <-d.stop:
			d.consumePending(true)
			return
		}
	}
}

// consumePending 只有暂时性错误才放回重试；final 为 true 时每批只尝试一次。
func (d *ReportDC) consumePending(final bool) {
	for {
		batch := d.popBatch()
		if batch == nil {
			return
		}
		err := d.sink.SaveReports(context.Background(), batch)
		if err == nil {
			continue
		}
		if final || !errx.Retryable(err) {
			d.log.Error("archive reports dropped", zap.Bool("closing", final), zap.Int("count", len(batch)), zap.Error(err))
			continue
		}
		d.log.Warn("archive reports failed, retry later", zap.Int("count", len(batch)), zap.Error(err))
		d.requeue(batch)
		if d.retryDelay > 0 {
			select {
			case <-time.After(d.retryDelay):
			case <-d.stop:
			}
		}
		return
	}
}

var _ port.ReportArchive = (*ReportDC)(nil)
