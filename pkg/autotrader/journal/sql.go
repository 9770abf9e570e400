package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/repo"
)

const (
	sqlJournalBuffer       = 4096
	defaultFlushInterval   = 200 * time.Millisecond
	defaultFlushBatchLimit = 512
)

// SQLJournal persists events to the journal database on top of an in-memory
// journal. Writes are batched by a background flusher so Append never blocks
// the strategy loop; database failures are logged, the in-memory copy stays
// authoritative for reads.
type SQLJournal struct {
	*InMemoryJournal

	events repo.IOrderEvent
	buf    chan *model.OrderEvent
	done   chan struct{}
}

func NewSQLJournal(ctx context.Context, events repo.IOrderEvent) *SQLJournal {
	j := &SQLJournal{
		InMemoryJournal: NewInMemoryJournal(),
		events:          events,
		buf:             make(chan *model.OrderEvent, sqlJournalBuffer),
		done:            make(chan struct{}),
	}
	go j.flushLoop(ctx)
	return j
}

func (j *SQLJournal) Append(ev *model.OrderEvent) {
	j.InMemoryJournal.Append(ev)

	select {
	case j.buf <- ev:
	default:
		zap.S().Warnf("journal db buffer full, dropping event %s", ev.EventID)
	}
}

// Close flushes whatever is buffered and stops the flusher.
func (j *SQLJournal) Close() {
	close(j.buf)
	<-j.done
}

func (j *SQLJournal) flushLoop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	var batch []*model.OrderEvent
	for {
		select {
		case ev, ok := <-j.buf:
			if !ok {
				j.flush(ctx, batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) >= defaultFlushBatchLimit {
				j.flush(ctx, batch)
				batch = nil
			}
		case <-ticker.C:
			j.flush(ctx, batch)
			batch = nil
		case <-ctx.Done():
			j.flush(ctx, batch)
			return
		}
	}
}

func (j *SQLJournal) flush(ctx context.Context, batch []*model.OrderEvent) {
	if len(batch) == 0 {
		return
	}
	if _, err := j.events.BulkCreate(context.WithoutCancel(ctx), batch); err != nil {
		zap.S().Warnf("journal db flush fail: %+v", err)
	}
}
