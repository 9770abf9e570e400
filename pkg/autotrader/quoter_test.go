package autotrader

import (
	"testing"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

func primaryBook(bestBid, bestAsk int64) *model.BookUpdate {
	book := &model.BookUpdate{Instrument: model.InstrumentETF}
	if bestBid > 0 {
		book.BidPrices[0] = bestBid
		book.BidVolumes[0] = 50
	}
	if bestAsk > 0 {
		book.AskPrices[0] = bestAsk
		book.AskVolumes[0] = 50
	}
	return book
}

func TestComputeSignalsOneSidedPressure(t *testing.T) {
	book := &model.BookUpdate{Instrument: model.InstrumentFuture}
	book.BidVolumes[0] = 90
	book.AskVolumes[0] = 10

	sig := ComputeSignals(book)
	if !sig.Buy || sig.Sell || !sig.Seen {
		t.Errorf("expected buy pressure, got %+v", sig)
	}

	book.BidVolumes[0], book.AskVolumes[0] = 10, 90
	sig = ComputeSignals(book)
	if sig.Buy || !sig.Sell {
		t.Errorf("expected sell pressure, got %+v", sig)
	}

	book.BidVolumes[0], book.AskVolumes[0] = 60, 40
	sig = ComputeSignals(book)
	if sig.Buy || sig.Sell {
		t.Errorf("mild imbalance should not signal, got %+v", sig)
	}
}

func TestPlanQuotesAtBestBeforeHedgeBookSeen(t *testing.T) {
	planner := NewQuotePlanner(testParams())

	plan := planner.Plan(primaryBook(100, 105), ImbalanceSignals{}, 0, 0, 0)
	if plan.BidPrice != 100 || plan.AskPrice != 105 {
		t.Errorf("expected quotes at 100/105, got %d/%d", plan.BidPrice, plan.AskPrice)
	}
	if plan.Volume != 10 {
		t.Errorf("expected lot volume 10, got %d", plan.Volume)
	}
	if !plan.OpenBid || !plan.OpenAsk {
		t.Errorf("both sides should be admitted, got %+v", plan)
	}
}

func TestPlanOffsetsFollowSignals(t *testing.T) {
	planner := NewQuotePlanner(testParams())
	book := primaryBook(100, 105)

	plan := planner.Plan(book, ImbalanceSignals{Buy: true, Seen: true}, 0, 0, 0)
	if plan.BidPrice != 100 || plan.AskPrice != 107 {
		t.Errorf("buy pressure: expected 100/107, got %d/%d", plan.BidPrice, plan.AskPrice)
	}

	plan = planner.Plan(book, ImbalanceSignals{Sell: true, Seen: true}, 0, 0, 0)
	if plan.BidPrice != 98 || plan.AskPrice != 105 {
		t.Errorf("sell pressure: expected 98/105, got %d/%d", plan.BidPrice, plan.AskPrice)
	}

	plan = planner.Plan(book, ImbalanceSignals{Seen: true}, 0, 0, 0)
	if plan.BidPrice != 99 || plan.AskPrice != 106 {
		t.Errorf("ambiguous: expected 99/106, got %d/%d", plan.BidPrice, plan.AskPrice)
	}
}

func TestPlanEmptySideYieldsNoQuote(t *testing.T) {
	planner := NewQuotePlanner(testParams())

	plan := planner.Plan(primaryBook(100, 0), ImbalanceSignals{}, 0, 0, 0)
	if plan.AskPrice != 0 || plan.OpenAsk {
		t.Errorf("empty ask side must not be quoted, got %+v", plan)
	}
	if plan.BidPrice != 100 || !plan.OpenBid {
		t.Errorf("bid side should still quote, got %+v", plan)
	}
}

func TestPlanAdmissionPinsAgainstLimit(t *testing.T) {
	planner := NewQuotePlanner(testParams())
	book := primaryBook(100, 105)

	// Long at the limit: worst-case fill of a new bid would breach it.
	plan := planner.Plan(book, ImbalanceSignals{}, 100, 0, 0)
	if plan.OpenBid {
		t.Error("bid must not be admitted at the long limit")
	}
	if !plan.OpenAsk {
		t.Error("ask should still be admitted at the long limit")
	}

	// Pending buy volume counts toward the worst case.
	plan = planner.Plan(book, ImbalanceSignals{}, 85, 10, 0)
	if plan.OpenBid {
		t.Error("position 85 with 10 pending buys leaves no room for another lot")
	}

	plan = planner.Plan(book, ImbalanceSignals{}, 80, 10, 0)
	if !plan.OpenBid {
		t.Error("position 80 with 10 pending buys admits exactly one more lot")
	}

	// Mirror on the short side.
	plan = planner.Plan(book, ImbalanceSignals{}, -100, 0, 0)
	if plan.OpenAsk {
		t.Error("ask must not be admitted at the short limit")
	}
	if !plan.OpenBid {
		t.Error("bid should still be admitted at the short limit")
	}
}

func TestPlanClampsToAdmissibleBand(t *testing.T) {
	params := testParams()
	params.MinimumBid = 95
	params.MaximumAsk = 106
	planner := NewQuotePlanner(params)

	plan := planner.Plan(primaryBook(96, 105), ImbalanceSignals{Sell: true, Seen: true}, 0, 0, 0)
	if plan.BidPrice != 96 {
		t.Errorf("bid should clamp to min bid tick 96, got %d", plan.BidPrice)
	}

	plan = planner.Plan(primaryBook(100, 105), ImbalanceSignals{Buy: true, Seen: true}, 0, 0, 0)
	if plan.AskPrice != 106 {
		t.Errorf("ask should clamp to max ask tick 106, got %d", plan.AskPrice)
	}
}
