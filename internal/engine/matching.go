package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tycoon-exchange/pkg/utils"
)

// MatchingEngine crosses buy and sell orders per market with price-time
// priority. All matching for one market key is serialized behind that key's
// lock; distinct markets match in parallel.
type MatchingEngine struct {
	store   Store
	refs    ReferenceData
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
	nowFunc func() time.Time
}

func NewMatchingEngine(store Store, refs ReferenceData) *MatchingEngine {
	return &MatchingEngine{
		store:   store,
		refs:    refs,
		locks:   make(map[string]*sync.Mutex),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// SubmitRequest carries everything a client supplies to place an order.
type SubmitRequest struct {
	Side     Side
	Market   MarketKey
	Price    decimal.Decimal
	Quantity int64
	Owner    string
}

// SubmitOrder validates the request, persists the order open, and matches
// its market to quiescence. It returns the order in its post-matching state
// together with the trades this submission produced.
func (e *MatchingEngine) SubmitOrder(ctx context.Context, req SubmitRequest) (*Order, []*Trade, error) {
	if err := e.validate(req); err != nil {
		return nil, nil, err
	}

	order := &Order{
		ID:        uuid.NewString(),
		Side:      req.Side,
		Market:    req.Market,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Remaining: req.Quantity,
		Status:    StatusOpen,
		Owner:     req.Owner,
		CreatedAt: e.nowFunc(),
	}
	if err := e.store.SaveOrder(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("%w: saving order: %v", ErrPersistence, err)
	}

	lock := e.lockFor(req.Market)
	lock.Lock()
	trades, err := e.matchLocked(ctx, req.Market)
	lock.Unlock()
	if err != nil {
		return order, trades, err
	}

	// Reload so the caller sees fills applied during matching.
	placed, err := e.store.GetOrder(ctx, order.ID)
	if err != nil {
		return order, trades, fmt.Errorf("%w: reloading order: %v", ErrPersistence, err)
	}
	if placed != nil {
		order = placed
	}
	return order, trades, nil
}

// CancelOrder moves an open order to its terminal cancelled state, freezing
// its remaining quantity. The market lock makes the race against matching
// resolve consistently.
func (e *MatchingEngine) CancelOrder(ctx context.Context, id string) (*Order, error) {
	order, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: loading order: %v", ErrPersistence, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	lock := e.lockFor(order.Market)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent match may have filled it.
	order, err = e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: loading order: %v", ErrPersistence, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if order.Status != StatusOpen {
		return nil, fmt.Errorf("%w: order %s is %s", ErrAlreadyTerminal, id, order.Status)
	}

	order.Status = StatusCancelled
	if err := e.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: saving cancellation: %v", ErrPersistence, err)
	}
	return order, nil
}

// MatchMarket runs the matching loop to quiescence for one market. Invoking
// it again with no new orders produces no further trades.
func (e *MatchingEngine) MatchMarket(ctx context.Context, key MarketKey) ([]*Trade, error) {
	lock := e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	return e.matchLocked(ctx, key)
}

// OpenOrders returns the market's resting orders.
func (e *MatchingEngine) OpenOrders(ctx context.Context, key MarketKey) ([]*Order, error) {
	return e.store.ListOpenOrders(ctx, key)
}

// RecentTrades returns up to limit trades of the market, most recent first.
func (e *MatchingEngine) RecentTrades(ctx context.Context, key MarketKey, limit int) ([]*Trade, error) {
	return e.store.ListTrades(ctx, key, limit)
}

func (e *MatchingEngine) validate(req SubmitRequest) error {
	if req.Side != Buy && req.Side != Sell {
		return fmt.Errorf("%w: side must be buy or sell", ErrInvalidOrder)
	}
	if req.Market.Type != Stock && req.Market.Type != Commodity {
		return fmt.Errorf("%w: market type must be stock or commodity", ErrInvalidOrder)
	}
	if req.Market.CompanyID == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidOrder)
	}
	if req.Market.Type == Commodity && req.Market.ProductID == "" {
		return fmt.Errorf("%w: commodity orders require a product", ErrInvalidOrder)
	}
	if req.Market.Type == Stock && req.Market.ProductID != "" {
		return fmt.Errorf("%w: stock orders must not name a product", ErrInvalidOrder)
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if e.refs != nil {
		if !e.refs.HasCompany(req.Market.CompanyID) {
			return fmt.Errorf("%w: unknown company %s", ErrInvalidOrder, req.Market.CompanyID)
		}
		if req.Market.Type == Commodity && !e.refs.HasProduct(req.Market.CompanyID, req.Market.ProductID) {
			return fmt.Errorf("%w: unknown product %s", ErrInvalidOrder, req.Market.ProductID)
		}
	}
	return nil
}

func (e *MatchingEngine) lockFor(key MarketKey) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	k := key.String()
	if l, ok := e.locks[k]; ok {
		return l
	}
	l := &sync.Mutex{}
	e.locks[k] = l
	return l
}

// matchLocked loads the market's book and crosses best buy against best sell
// until no crossing remains. Caller holds the market lock. Every trade is
// persisted together with its two order mutations before the next iteration;
// a persistence failure rolls the in-memory step back and aborts the loop,
// returning the trades recorded so far.
func (e *MatchingEngine) matchLocked(ctx context.Context, key MarketKey) ([]*Trade, error) {
	open, err := e.store.ListOpenOrders(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: loading book: %v", ErrPersistence, err)
	}
	book := NewOrderBook(key)
	for _, o := range open {
		book.Insert(o)
	}

	var trades []*Trade
	for {
		buy := book.PeekBestBuy()
		sell := book.PeekBestSell()
		if buy == nil || sell == nil {
			break
		}
		if buy.Price.LessThan(sell.Price) {
			// Best buy does not cross best sell; both sides are sorted
			// best-first, so nothing deeper can cross either.
			break
		}

		qty := buy.Remaining
		if sell.Remaining < qty {
			qty = sell.Remaining
		}
		now := e.nowFunc()
		trade := &Trade{
			ID:          uuid.NewString(),
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Market:      key,
			Price:       sell.Price,
			Quantity:    qty,
			TradedAt:    now,
		}

		buyPrev, sellPrev := buy.snapshot(), sell.snapshot()
		buy.fill(qty, now)
		sell.fill(qty, now)

		if err := e.store.RecordExecution(ctx, trade, buy, sell); err != nil {
			buy.restore(buyPrev)
			sell.restore(sellPrev)
			return trades, fmt.Errorf("%w: recording trade: %v", ErrPersistence, err)
		}

		trades = append(trades, trade)
		utils.LogTrade(trade.ID, key.String(), trade.Price.String(), trade.Quantity)
		book.RemoveExhausted()
	}
	return trades, nil
}
