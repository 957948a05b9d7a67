// Package memory provides map-backed repositories for tests and for running
// the exchange without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"tycoon-exchange/internal/engine"
)

type Store struct {
	mu     sync.RWMutex
	orders map[string]*engine.Order
	trades []*engine.Trade
}

func New() *Store {
	return &Store{
		orders: make(map[string]*engine.Order),
	}
}

func (s *Store) SaveOrder(ctx context.Context, o *engine.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*engine.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *Store) ListOpenOrders(ctx context.Context, key engine.MarketKey) ([]*engine.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*engine.Order
	for _, o := range s.orders {
		if o.Market == key && o.Open() {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SaveTrade(ctx context.Context, t *engine.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, cloneTrade(t))
	return nil
}

func (s *Store) ListTrades(ctx context.Context, key engine.MarketKey, limit int) ([]*engine.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*engine.Trade
	for i := len(s.trades) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.trades[i].Market == key {
			out = append(out, cloneTrade(s.trades[i]))
		}
	}
	return out, nil
}

// RecordExecution stores the trade and both order mutations under a single
// lock acquisition, so readers never observe one without the others.
func (s *Store) RecordExecution(ctx context.Context, t *engine.Trade, buy, sell *engine.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, cloneTrade(t))
	s.orders[buy.ID] = buy.Clone()
	s.orders[sell.ID] = sell.Clone()
	return nil
}

func cloneTrade(t *engine.Trade) *engine.Trade {
	c := *t
	return &c
}
