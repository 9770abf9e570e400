package model

// TopLevelCount is the number of book levels delivered per snapshot.
const TopLevelCount = 5

// BookUpdate is a top-of-book snapshot for one instrument. The same shape is
// used for order-book updates and trade-tick reports. Levels with no price
// carry zeros at the end of the arrays.
type BookUpdate struct {
	Instrument     Instrument
	SequenceNumber uint64
	AskPrices      [TopLevelCount]int64
	AskVolumes     [TopLevelCount]int64
	BidPrices      [TopLevelCount]int64
	BidVolumes     [TopLevelCount]int64
}

// BestBid returns the best bid price, zero if the bid side is empty.
func (b *BookUpdate) BestBid() int64 {
	return b.BidPrices[0]
}

// BestAsk returns the best ask price, zero if the ask side is empty.
func (b *BookUpdate) BestAsk() int64 {
	return b.AskPrices[0]
}

// BidVolumeTotal sums the bid volume over all reported levels.
func (b *BookUpdate) BidVolumeTotal() int64 {
	var total int64
	for _, v := range b.BidVolumes {
		total += v
	}
	return total
}

// AskVolumeTotal sums the ask volume over all reported levels.
func (b *BookUpdate) AskVolumeTotal() int64 {
	var total int64
	for _, v := range b.AskVolumes {
		total += v
	}
	return total
}
