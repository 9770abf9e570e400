package journal

import (
	"sync"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

// InMemoryJournal keeps all events in process memory.
type InMemoryJournal struct {
	mu       sync.RWMutex
	byOrder  map[uint64][]*model.OrderEvent
	prevLink map[uint64]uint64 // order id -> order id it replaced
	all      []*model.OrderEvent
}

func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{
		byOrder:  make(map[uint64][]*model.OrderEvent),
		prevLink: make(map[uint64]uint64),
	}
}

func (j *InMemoryJournal) Append(ev *model.OrderEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.all = append(j.all, ev)
	j.byOrder[ev.OrderID] = append(j.byOrder[ev.OrderID], ev)
	if ev.PrevOrderID != 0 {
		j.prevLink[ev.OrderID] = ev.PrevOrderID
	}
}

func (j *InMemoryJournal) EventsForOrder(orderID uint64) []*model.OrderEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()

	evs := j.byOrder[orderID]
	out := make([]*model.OrderEvent, len(evs))
	copy(out, evs)
	return out
}

// ReplacementChain walks backward from orderID through replacement links.
func (j *InMemoryJournal) ReplacementChain(orderID uint64) []uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var chain []uint64
	curr := orderID
	for curr != 0 {
		chain = append(chain, curr)
		curr = j.prevLink[curr]
	}
	return chain
}

// Len reports the total number of recorded events.
func (j *InMemoryJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return len(j.all)
}

// All returns every recorded event in append order.
func (j *InMemoryJournal) All() []*model.OrderEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*model.OrderEvent, len(j.all))
	copy(out, j.all)
	return out
}
