package exchsim

import (
	"testing"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

func TestBookRestsAndMatchesFIFO(t *testing.T) {
	book := NewBook(model.InstrumentETF)

	book.insert(&bookOrder{id: 1, side: model.SideSell, price: 100, volume: 10}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 2, side: model.SideSell, price: 100, volume: 10}, model.LifespanGoodForDay)

	matches, err := book.insert(&bookOrder{id: 3, side: model.SideBuy, price: 100, volume: 15}, model.LifespanGoodForDay)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].maker.id != 1 || matches[0].volume != 10 {
		t.Errorf("first in should fill first: %+v", matches[0])
	}
	if matches[1].maker.id != 2 || matches[1].volume != 5 {
		t.Errorf("second maker partially fills: %+v", matches[1])
	}

	if _, ok := book.lookup(1); ok {
		t.Error("fully filled maker should leave the book")
	}
	rest, ok := book.lookup(2)
	if !ok || rest.volume != 5 {
		t.Errorf("expected 5 lots resting on maker 2, got %+v", rest)
	}
}

func TestBookMatchesBestPriceFirst(t *testing.T) {
	book := NewBook(model.InstrumentETF)

	book.insert(&bookOrder{id: 1, side: model.SideSell, price: 102, volume: 10}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 2, side: model.SideSell, price: 100, volume: 10}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 3, side: model.SideSell, price: 101, volume: 10}, model.LifespanGoodForDay)

	matches, _ := book.insert(&bookOrder{id: 4, side: model.SideBuy, price: 102, volume: 25}, model.LifespanGoodForDay)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	wantPrices := []int64{100, 101, 102}
	for i, m := range matches {
		if m.price != wantPrices[i] {
			t.Errorf("match %d at %d, want %d", i, m.price, wantPrices[i])
		}
	}
}

func TestBookRespectsLimitPrice(t *testing.T) {
	book := NewBook(model.InstrumentETF)

	book.insert(&bookOrder{id: 1, side: model.SideSell, price: 105, volume: 10}, model.LifespanGoodForDay)

	matches, _ := book.insert(&bookOrder{id: 2, side: model.SideBuy, price: 104, volume: 10}, model.LifespanGoodForDay)
	if len(matches) != 0 {
		t.Fatalf("bid below the offer must not trade, got %+v", matches)
	}

	order, ok := book.lookup(2)
	if !ok || order.volume != 10 {
		t.Errorf("unmatched bid should rest in full, got %+v", order)
	}
}

func TestBookFillAndKillDiscardsRemainder(t *testing.T) {
	book := NewBook(model.InstrumentFuture)

	book.insert(&bookOrder{id: 1, side: model.SideSell, price: 100, volume: 4}, model.LifespanGoodForDay)

	matches, _ := book.insert(&bookOrder{id: 2, side: model.SideBuy, price: 100, volume: 10}, model.LifespanFillAndKill)
	if len(matches) != 1 || matches[0].volume != 4 {
		t.Fatalf("expected 4 lots to trade, got %+v", matches)
	}
	if _, ok := book.lookup(2); ok {
		t.Error("fill-and-kill remainder must not rest")
	}
}

func TestBookCancelAndAmend(t *testing.T) {
	book := NewBook(model.InstrumentETF)

	book.insert(&bookOrder{id: 1, side: model.SideBuy, price: 100, volume: 10}, model.LifespanGoodForDay)

	order, _, err := book.amend(1, 6)
	if err != nil || order.volume != 6 {
		t.Fatalf("amend to 6 failed: %+v %v", order, err)
	}

	if _, err := book.cancel(1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := book.cancel(1); err == nil {
		t.Error("double cancel should fail")
	}

	// Cancelled shell must not trade.
	matches, _ := book.insert(&bookOrder{id: 2, side: model.SideSell, price: 100, volume: 10}, model.LifespanGoodForDay)
	if len(matches) != 0 {
		t.Errorf("cancelled order traded: %+v", matches)
	}
}

func TestBookSnapshotAggregatesLevels(t *testing.T) {
	book := NewBook(model.InstrumentETF)

	book.insert(&bookOrder{id: 1, side: model.SideBuy, price: 100, volume: 10}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 2, side: model.SideBuy, price: 100, volume: 5}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 3, side: model.SideBuy, price: 99, volume: 7}, model.LifespanGoodForDay)
	book.insert(&bookOrder{id: 4, side: model.SideSell, price: 105, volume: 3}, model.LifespanGoodForDay)

	snap := book.Snapshot()
	if snap.BidPrices[0] != 100 || snap.BidVolumes[0] != 15 {
		t.Errorf("best bid level wrong: %d@%d", snap.BidVolumes[0], snap.BidPrices[0])
	}
	if snap.BidPrices[1] != 99 || snap.BidVolumes[1] != 7 {
		t.Errorf("second bid level wrong: %d@%d", snap.BidVolumes[1], snap.BidPrices[1])
	}
	if snap.AskPrices[0] != 105 || snap.AskVolumes[0] != 3 {
		t.Errorf("ask level wrong: %d@%d", snap.AskVolumes[0], snap.AskPrices[0])
	}
	if snap.SequenceNumber != 1 {
		t.Errorf("expected sequence 1, got %d", snap.SequenceNumber)
	}

	// Cancelled volume disappears from the next snapshot.
	book.cancel(2)
	snap = book.Snapshot()
	if snap.BidVolumes[0] != 10 {
		t.Errorf("expected 10 lots at best after cancel, got %d", snap.BidVolumes[0])
	}
	if snap.SequenceNumber != 2 {
		t.Errorf("expected sequence 2, got %d", snap.SequenceNumber)
	}
}

func BenchmarkBookInsertMatch(b *testing.B) {
	book := NewBook(model.InstrumentETF)
	for i := 0; i < b.N; i++ {
		id := uint64(i) * 2
		book.insert(&bookOrder{id: id, side: model.SideSell, price: 100, volume: 10}, model.LifespanGoodForDay)
		book.insert(&bookOrder{id: id + 1, side: model.SideBuy, price: 100, volume: 10}, model.LifespanGoodForDay)
	}
}
