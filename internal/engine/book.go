package engine

import "sort"

// OrderBook holds the resting orders of a single market, each side kept
// sorted for matching: buys by descending price, sells by ascending price,
// ties broken by earliest submission.
type OrderBook struct {
	Key        MarketKey
	buyOrders  []*Order
	sellOrders []*Order
}

func NewOrderBook(key MarketKey) *OrderBook {
	return &OrderBook{
		Key:        key,
		buyOrders:  make([]*Order, 0),
		sellOrders: make([]*Order, 0),
	}
}

// Insert places an open order at its sorted position. Orders that are not
// eligible for matching are ignored.
func (b *OrderBook) Insert(o *Order) {
	if !o.Open() {
		return
	}
	if o.Side == Buy {
		i := sort.Search(len(b.buyOrders), func(i int) bool {
			return buyBefore(o, b.buyOrders[i])
		})
		b.buyOrders = append(b.buyOrders, nil)
		copy(b.buyOrders[i+1:], b.buyOrders[i:])
		b.buyOrders[i] = o
	} else {
		i := sort.Search(len(b.sellOrders), func(i int) bool {
			return sellBefore(o, b.sellOrders[i])
		})
		b.sellOrders = append(b.sellOrders, nil)
		copy(b.sellOrders[i+1:], b.sellOrders[i:])
		b.sellOrders[i] = o
	}
}

// buyBefore reports whether a outranks b on the buy side: higher price
// first, then earlier submission.
func buyBefore(a, o *Order) bool {
	if !a.Price.Equal(o.Price) {
		return a.Price.GreaterThan(o.Price)
	}
	return a.CreatedAt.Before(o.CreatedAt)
}

// sellBefore reports whether a outranks b on the sell side: lower price
// first, then earlier submission.
func sellBefore(a, o *Order) bool {
	if !a.Price.Equal(o.Price) {
		return a.Price.LessThan(o.Price)
	}
	return a.CreatedAt.Before(o.CreatedAt)
}

// PeekBestBuy returns the highest-priority buy order, or nil if the side is
// empty.
func (b *OrderBook) PeekBestBuy() *Order {
	if len(b.buyOrders) == 0 {
		return nil
	}
	return b.buyOrders[0]
}

// PeekBestSell returns the highest-priority sell order, or nil if the side
// is empty.
func (b *OrderBook) PeekBestSell() *Order {
	if len(b.sellOrders) == 0 {
		return nil
	}
	return b.sellOrders[0]
}

// RemoveExhausted drops orders that are no longer eligible for matching from
// the front of both sides. Matching only ever exhausts the best order of a
// side, so scanning from the front is sufficient.
func (b *OrderBook) RemoveExhausted() {
	for len(b.buyOrders) > 0 && !b.buyOrders[0].Open() {
		b.buyOrders = b.buyOrders[1:]
	}
	for len(b.sellOrders) > 0 && !b.sellOrders[0].Open() {
		b.sellOrders = b.sellOrders[1:]
	}
}

// BuyOrders returns the buy side in priority order.
func (b *OrderBook) BuyOrders() []*Order {
	return append([]*Order(nil), b.buyOrders...)
}

// SellOrders returns the sell side in priority order.
func (b *OrderBook) SellOrders() []*Order {
	return append([]*Order(nil), b.sellOrders...)
}
