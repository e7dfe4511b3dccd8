package dc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/town/app/port"
	"Paddlers/modules/kit/errx"
)

type memSink struct {
	mu    sync.Mutex
	saved map[int64]port.ArchivedReport
	calls int
	fail  int
	err   error
}

func newMemSink() *memSink {
	return &memSink{saved: make(map[int64]port.ArchivedReport)}
}

func (s *memSink) SaveReports(_ context.Context, reports []port.ArchivedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail > 0 {
		s.fail--
		if s.err != nil {
			return s.err
		}
		return errx.ErrUnavailable.WithCause(errors.New("mongo down"))
	}
	for _, r := range reports {
		s.saved[r.ID] = r
	}
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *memSink) get(id int64) port.ArchivedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[id]
}

func TestReportDC_关闭时写完缓冲(t *testing.T) {
	sink := newMemSink()
	d := NewReportDC(sink, nil, WithFlushEvery(time.Hour))
	d.Archive(port.ArchivedReport{ID: 1, Kind: "taxes", Karma: 3})
	d.Archive(port.ArchivedReport{ID: 2, Kind: "fight"})
	d.Archive(port.ArchivedReport{ID: 1, Kind: "taxes", Karma: 5})
	assert.Equal(t, 2, d.Pending())

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, sink.count())
	assert.Equal(t, int64(5), sink.get(1).Karma, "同 id 保留最后一次")

	d.Archive(port.ArchivedReport{ID: 3})
	assert.Equal(t, 0, d.Pending(), "关闭后丢弃")
}

func TestReportDC_攒满一批立即落库(t *testing.T) {
	sink := newMemSink()
	d := NewReportDC(sink, nil, WithFlushEvery(time.Hour), WithBatchSize(2))
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	d.Archive(port.ArchivedReport{ID: 1})
	d.Archive(port.ArchivedReport{ID: 2})
	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestReportDC_失败后重试(t *testing.T) {
	sink := newMemSink()
	sink.fail = 1
	d := NewReportDC(sink, nil, WithFlushEvery(10*time.Millisecond), WithRetryDelay(0))
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	d.Archive(port.ArchivedReport{ID: 7, Kind: "fight", Defence: 4})
	d.Flush()
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, sink.get(7).Defence)
}

func TestReportDC_不可重试的错误直接丢弃(t *testing.T) {
	sink := newMemSink()
	sink.fail = 1
	sink.err = errors.New("bad document")
	d := NewReportDC(sink, nil, WithFlushEvery(10*time.Millisecond), WithRetryDelay(0))
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	d.Archive(port.ArchivedReport{ID: 8})
	d.Flush()
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, sink.count())
}
