package journal

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

const (
	redisJournalBuffer   = 4096
	redisFlushInterval   = 200 * time.Millisecond
	redisFlushBatchLimit = 256
)

// RedisJournal fans events out to a redis stream on top of an in-memory
// journal. Append never touches the network: events are buffered and a
// background flusher pipelines them to the stream, so a slow or unreachable
// redis cannot stall the strategy loop. Stream failures are logged and
// otherwise ignored; the in-memory copy stays authoritative for reads.
type RedisJournal struct {
	*InMemoryJournal

	client *redis.Client
	stream string
	buf    chan *model.OrderEvent
	done   chan struct{}
}

func NewRedisJournal(ctx context.Context, client *redis.Client, stream string) *RedisJournal {
	j := &RedisJournal{
		InMemoryJournal: NewInMemoryJournal(),
		client:          client,
		stream:          stream,
		buf:             make(chan *model.OrderEvent, redisJournalBuffer),
		done:            make(chan struct{}),
	}
	go j.flushLoop(ctx)
	return j
}

func (j *RedisJournal) Append(ev *model.OrderEvent) {
	j.InMemoryJournal.Append(ev)

	select {
	case j.buf <- ev:
	default:
		zap.S().Warnf("journal stream buffer full, dropping event %s", ev.EventID)
	}
}

// Close flushes whatever is buffered and stops the flusher.
func (j *RedisJournal) Close() {
	close(j.buf)
	<-j.done
}

func (j *RedisJournal) flushLoop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(redisFlushInterval)
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
			if len(batch) >= redisFlushBatchLimit {
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

func (j *RedisJournal) flush(ctx context.Context, batch []*model.OrderEvent) {
	if len(batch) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	pipe := j.client.Pipeline()
	for _, ev := range batch {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: j.stream,
			Values: streamValues(ev),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		zap.S().Warnf("journal stream flush fail: %+v", err)
	}
}

func streamValues(ev *model.OrderEvent) map[string]interface{} {
	return map[string]interface{}{
		"event_id":      ev.EventID,
		"order_id":      ev.OrderID,
		"prev_order_id": ev.PrevOrderID,
		"type":          string(ev.Type),
		"instrument":    string(ev.Instrument),
		"side":          string(ev.Side),
		"price":         ev.Price,
		"volume":        ev.Volume,
		"notional":      ev.Notional.String(),
		"position":      ev.Position,
		"tick":          ev.Tick,
		"ts":            ev.Timestamp.UnixMilli(),
	}
}
