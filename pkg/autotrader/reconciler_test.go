package autotrader

import (
	"context"
	"testing"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/journal"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

type reconcilerFixture struct {
	gw         *fakeGateway
	ledger     *Ledger
	jrn        *journal.InMemoryJournal
	reconciler *Reconciler
	nextID     uint64
}

func newReconcilerFixture() *reconcilerFixture {
	gw := &fakeGateway{}
	ledger := newTestLedger(gw)
	jrn := journal.NewInMemoryJournal()
	return &reconcilerFixture{
		gw:         gw,
		ledger:     ledger,
		jrn:        jrn,
		reconciler: NewReconciler(ledger, NewPositionBook(), jrn, logging.NewNop(), model.InstrumentETF),
	}
}

func (f *reconcilerFixture) allocID() uint64 {
	f.nextID++
	return f.nextID
}

func TestConvergeOpensBothSides(t *testing.T) {
	f := newReconcilerFixture()
	plan := QuotePlan{BidPrice: 100, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: true}

	f.reconciler.Converge(context.Background(), plan, 1, f.allocID)

	inserts := f.gw.ops("insert")
	if len(inserts) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(inserts))
	}
	if inserts[0].side != model.SideBuy || inserts[0].price != 100 || inserts[0].volume != 10 {
		t.Errorf("unexpected bid insert: %+v", inserts[0])
	}
	if inserts[1].side != model.SideSell || inserts[1].price != 105 || inserts[1].volume != 10 {
		t.Errorf("unexpected ask insert: %+v", inserts[1])
	}
}

func TestConvergeIsIdempotent(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	plan := QuotePlan{BidPrice: 100, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: true}

	f.reconciler.Converge(ctx, plan, 1, f.allocID)
	before := len(f.gw.calls)

	f.reconciler.Converge(ctx, plan, 2, f.allocID)
	if len(f.gw.calls) != before {
		t.Errorf("second converge with same plan sent %d extra calls", len(f.gw.calls)-before)
	}
}

func TestConvergeRepricesByReplace(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 100, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: true}, 1, f.allocID)
	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 103, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: true}, 2, f.allocID)

	cancels := f.gw.ops("cancel")
	if len(cancels) != 1 || cancels[0].orderID != 1 {
		t.Fatalf("expected the stale bid to be cancelled, got %+v", cancels)
	}

	live := f.ledger.Live(model.InstrumentETF)
	if len(live) != 2 {
		t.Fatalf("expected 2 live orders, got %d", len(live))
	}
	var bid *model.Order
	for _, order := range live {
		if order.Side == model.SideBuy {
			bid = order
		}
	}
	if bid == nil || bid.Price != 103 {
		t.Fatalf("expected repriced bid at 103, got %+v", bid)
	}
	if bid.ID == 1 {
		t.Error("replacement must carry a fresh order id")
	}

	chain := f.jrn.ReplacementChain(bid.ID)
	if len(chain) != 2 || chain[1] != 1 {
		t.Errorf("replacement chain should link back to order 1, got %v", chain)
	}
}

func TestConvergeCancelsVanishedSide(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 100, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: true}, 1, f.allocID)

	// Ask side of the book vanished: plan carries no ask price.
	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 100, Volume: 10, OpenBid: true}, 2, f.allocID)

	live := f.ledger.Live(model.InstrumentETF)
	if len(live) != 1 || live[0].Side != model.SideBuy {
		t.Fatalf("only the bid should survive, got %+v", live)
	}
}

func TestConvergeKeepsOrderWhenCancelFailsDuringReplace(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 100, Volume: 10, OpenBid: true}, 1, f.allocID)

	f.gw.failCancel = true
	f.reconciler.Converge(ctx, QuotePlan{BidPrice: 103, Volume: 10, OpenBid: true}, 2, f.allocID)

	if got := len(f.gw.ops("insert")); got != 1 {
		t.Errorf("no insert may follow a failed cancel, got %d", got)
	}
	order, ok := f.ledger.Get(1)
	if !ok || order.Price != 100 {
		t.Errorf("original bid should still rest at 100, got %+v", order)
	}
}

func TestConvergeRespectsClosedAdmission(t *testing.T) {
	f := newReconcilerFixture()

	// Ask price exists but admission refused opening a new ask.
	plan := QuotePlan{BidPrice: 100, AskPrice: 105, Volume: 10, OpenBid: true, OpenAsk: false}
	f.reconciler.Converge(context.Background(), plan, 1, f.allocID)

	inserts := f.gw.ops("insert")
	if len(inserts) != 1 || inserts[0].side != model.SideBuy {
		t.Errorf("only the bid may be opened, got %+v", inserts)
	}
}
