package journal

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

func TestRedisJournalAppendNeverTouchesNetwork(t *testing.T) {
	// Nothing listens here; if Append issued the stream write inline every
	// call would surface a connection error on the caller's path.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jrn := NewRedisJournal(ctx, client, "test:order-events")

	for i := uint64(1); i <= 100; i++ {
		jrn.Append(event(model.EventTypeInsert, i, 0))
	}

	if jrn.Len() != 100 {
		t.Fatalf("expected 100 events in memory, got %d", jrn.Len())
	}
	if events := jrn.EventsForOrder(42); len(events) != 1 {
		t.Errorf("expected 1 event for order 42, got %d", len(events))
	}

	// Shutdown drains the buffer; stream failures are logged, never raised.
	jrn.Close()
	if jrn.Len() != 100 {
		t.Errorf("in-memory copy must survive a failed flush, got %d", jrn.Len())
	}
}
