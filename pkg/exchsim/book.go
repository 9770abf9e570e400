package exchsim

import (
	"container/heap"
	"sort"

	"github.com/gammazero/deque"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// bookOrder is one resting order inside the simulator. client marks orders
// owned by the connected trader; ambient liquidity never triggers callbacks.
type bookOrder struct {
	id     uint64
	side   model.Side
	price  int64
	volume int64
	filled int64
	fees   int64
	client bool
}

// match is one execution against a resting order. maker is the resting side.
type match struct {
	maker  *bookOrder
	price  int64
	volume int64
}

// Book is a single-instrument price-time priority book. Buy and sell sides
// each pair a per-price FIFO queue with a heap over the prices, so the best
// level is O(1) to find and stale empty levels are skimmed lazily.
type Book struct {
	instrument model.Instrument

	buys  map[int64]*deque.Deque[*bookOrder]
	sells map[int64]*deque.Deque[*bookOrder]

	buyHeap  *PriceHeap
	sellHeap *PriceHeap

	orders map[uint64]*bookOrder
	seq    uint64
}

func NewBook(instrument model.Instrument) *Book {
	return &Book{
		instrument: instrument,
		buys:       make(map[int64]*deque.Deque[*bookOrder]),
		sells:      make(map[int64]*deque.Deque[*bookOrder]),
		buyHeap:    NewPriceHeap(func(i, j int64) bool { return i > j }),
		sellHeap:   NewPriceHeap(func(i, j int64) bool { return i < j }),
		orders:     make(map[uint64]*bookOrder),
	}
}

// insert matches the order against the opposite side, then rests the
// remainder for GOOD_FOR_DAY or discards it for FILL_AND_KILL.
func (b *Book) insert(order *bookOrder, lifespan model.Lifespan) ([]match, error) {
	if order.price <= 0 || order.volume <= 0 {
		return nil, errInvalidBookOrder
	}
	if _, ok := b.orders[order.id]; ok {
		return nil, errDuplicateBookOrder
	}

	var sideBook, counterBook map[int64]*deque.Deque[*bookOrder]
	var sideHeap, counterHeap *PriceHeap
	var crosses func(orderPrice, counterPrice int64) bool

	if order.side == model.SideBuy {
		sideBook, sideHeap = b.buys, b.buyHeap
		counterBook, counterHeap = b.sells, b.sellHeap
		crosses = func(orderPrice, counterPrice int64) bool { return orderPrice >= counterPrice }
	} else {
		sideBook, sideHeap = b.sells, b.sellHeap
		counterBook, counterHeap = b.buys, b.buyHeap
		crosses = func(orderPrice, counterPrice int64) bool { return orderPrice <= counterPrice }
	}

	matches := b.matchOrder(order, counterBook, counterHeap, crosses)

	if lifespan == model.LifespanGoodForDay && order.volume > 0 {
		b.addToBook(sideBook, sideHeap, order)
		b.orders[order.id] = order
	} else if lifespan == model.LifespanFillAndKill {
		order.volume = 0 // remainder is killed, not resting
	}
	return matches, nil
}

// cancel removes a resting order. The per-price queue entry is unlinked
// lazily by zeroing the volume; empty shells are skimmed during matching and
// skipped in snapshots.
func (b *Book) cancel(orderID uint64) (*bookOrder, error) {
	order, ok := b.orders[orderID]
	if !ok {
		return nil, errBookOrderNotFound
	}
	delete(b.orders, orderID)
	order.volume = 0
	return order, nil
}

// amend resets the order's total volume. The remaining volume becomes the
// new total minus what already filled; a new total at or below the filled
// amount removes the order.
func (b *Book) amend(orderID uint64, newTotal int64) (*bookOrder, bool, error) {
	order, ok := b.orders[orderID]
	if !ok {
		return nil, false, errBookOrderNotFound
	}

	remaining := newTotal - order.filled
	if remaining <= 0 {
		delete(b.orders, orderID)
		order.volume = 0
		return order, true, nil
	}
	order.volume = remaining
	return order, false, nil
}

func (b *Book) lookup(orderID uint64) (*bookOrder, bool) {
	order, ok := b.orders[orderID]
	return order, ok
}

func (b *Book) matchOrder(
	order *bookOrder,
	counterBook map[int64]*deque.Deque[*bookOrder],
	counterHeap *PriceHeap,
	crosses func(orderPrice, counterPrice int64) bool,
) []match {
	var matches []match

	for order.volume > 0 {
		bestPrice, ok := counterHeap.Peek()
		if !ok || !crosses(order.price, bestPrice) {
			break
		}

		q := counterBook[bestPrice]
		if q.Len() == 0 {
			heap.Pop(counterHeap)
			delete(counterBook, bestPrice)
			continue
		}

		best := q.Front()
		if best.volume == 0 { // cancelled shell
			q.PopFront()
			continue
		}

		matchVol := min(order.volume, best.volume)
		order.volume -= matchVol
		order.filled += matchVol
		best.volume -= matchVol
		best.filled += matchVol

		matches = append(matches, match{maker: best, price: bestPrice, volume: matchVol})

		if best.volume == 0 {
			q.PopFront()
			delete(b.orders, best.id)
		}
	}

	return matches
}

func (b *Book) addToBook(book map[int64]*deque.Deque[*bookOrder], priceHeap *PriceHeap, order *bookOrder) {
	if book[order.price] == nil {
		book[order.price] = &deque.Deque[*bookOrder]{}
		heap.Push(priceHeap, order.price)
	}
	book[order.price].PushBack(order)
}

// Snapshot aggregates resting volume into a top-of-book update, best levels
// first, and bumps the per-book sequence number.
func (b *Book) Snapshot() *model.BookUpdate {
	b.seq++
	update := &model.BookUpdate{
		Instrument:     b.instrument,
		SequenceNumber: b.seq,
	}

	fillLevels(b.buys, true, update.BidPrices[:], update.BidVolumes[:])
	fillLevels(b.sells, false, update.AskPrices[:], update.AskVolumes[:])
	return update
}

func fillLevels(side map[int64]*deque.Deque[*bookOrder], descending bool, prices, volumes []int64) {
	byPrice := make(map[int64]int64)
	for price, q := range side {
		var total int64
		for i := 0; i < q.Len(); i++ {
			total += q.At(i).volume
		}
		if total > 0 {
			byPrice[price] = total
		}
	}

	levels := make([]int64, 0, len(byPrice))
	for price := range byPrice {
		levels = append(levels, price)
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i] > levels[j]
		}
		return levels[i] < levels[j]
	})

	for i, price := range levels {
		if i >= len(prices) {
			break
		}
		prices[i] = price
		volumes[i] = byPrice[price]
	}
}
