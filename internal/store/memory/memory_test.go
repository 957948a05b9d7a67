package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tycoon-exchange/internal/engine"
)

func testOrder(id string, side engine.Side, price int64, qty int64, at time.Time) *engine.Order {
	return &engine.Order{
		ID:        id,
		Side:      side,
		Market:    engine.MarketKey{Type: engine.Stock, CompanyID: "alphatech"},
		Price:     decimal.NewFromInt(price),
		Quantity:  qty,
		Remaining: qty,
		Status:    engine.StatusOpen,
		Owner:     "trader-1",
		CreatedAt: at,
	}
}

func TestSaveIsolatesCallerMutations(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	o := testOrder("o-1", engine.Buy, 100, 10, base)
	if err := store.SaveOrder(ctx, o); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	o.Remaining = 0
	o.Status = engine.StatusMatched

	got, err := store.GetOrder(ctx, "o-1")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Remaining != 10 || got.Status != engine.StatusOpen {
		t.Errorf("Stored order changed through caller's pointer: %+v", got)
	}
}

func TestGetOrderMissing(t *testing.T) {
	store := New()
	got, err := store.GetOrder(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing order, got %+v", got)
	}
}

func TestListOpenOrdersFiltersAndSorts(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	key := engine.MarketKey{Type: engine.Stock, CompanyID: "alphatech"}

	second := testOrder("second", engine.Buy, 100, 5, base.Add(time.Second))
	first := testOrder("first", engine.Sell, 101, 5, base)
	store.SaveOrder(ctx, second)
	store.SaveOrder(ctx, first)

	cancelled := testOrder("cancelled", engine.Buy, 99, 5, base)
	cancelled.Status = engine.StatusCancelled
	store.SaveOrder(ctx, cancelled)

	otherMarket := testOrder("other", engine.Buy, 99, 5, base)
	otherMarket.Market = engine.MarketKey{Type: engine.Stock, CompanyID: "greenfarms"}
	store.SaveOrder(ctx, otherMarket)

	open, err := store.ListOpenOrders(ctx, key)
	if err != nil {
		t.Fatalf("ListOpenOrders failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("Expected 2 open orders, got %d", len(open))
	}
	if open[0].ID != "first" || open[1].ID != "second" {
		t.Errorf("Expected submission order [first second], got [%s %s]", open[0].ID, open[1].ID)
	}
}

func TestListTradesNewestFirstWithLimit(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	key := engine.MarketKey{Type: engine.Stock, CompanyID: "alphatech"}

	for i := 0; i < 5; i++ {
		store.SaveTrade(ctx, &engine.Trade{
			ID:       string(rune('a' + i)),
			Market:   key,
			Price:    decimal.NewFromInt(100),
			Quantity: 1,
			TradedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	trades, err := store.ListTrades(ctx, key, 3)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(trades))
	}
	if trades[0].ID != "e" || trades[2].ID != "c" {
		t.Errorf("Expected newest first [e d c], got [%s %s %s]", trades[0].ID, trades[1].ID, trades[2].ID)
	}
}

func TestRecordExecution(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	key := engine.MarketKey{Type: engine.Stock, CompanyID: "alphatech"}

	buy := testOrder("buy-1", engine.Buy, 100, 10, base)
	sell := testOrder("sell-1", engine.Sell, 100, 10, base.Add(time.Second))
	store.SaveOrder(ctx, buy)
	store.SaveOrder(ctx, sell)

	now := base.Add(2 * time.Second)
	buy.Remaining, sell.Remaining = 0, 0
	buy.Status, sell.Status = engine.StatusMatched, engine.StatusMatched
	buy.MatchedAt, sell.MatchedAt = &now, &now

	trade := &engine.Trade{
		ID:          "t-1",
		BuyOrderID:  "buy-1",
		SellOrderID: "sell-1",
		Market:      key,
		Price:       decimal.NewFromInt(100),
		Quantity:    10,
		TradedAt:    now,
	}
	if err := store.RecordExecution(ctx, trade, buy, sell); err != nil {
		t.Fatalf("RecordExecution failed: %v", err)
	}

	trades, _ := store.ListTrades(ctx, key, 0)
	if len(trades) != 1 || trades[0].ID != "t-1" {
		t.Fatalf("Expected recorded trade, got %v", trades)
	}
	got, _ := store.GetOrder(ctx, "buy-1")
	if got.Status != engine.StatusMatched || got.Remaining != 0 {
		t.Errorf("Expected buy order updated with the trade, got %+v", got)
	}
	open, _ := store.ListOpenOrders(ctx, key)
	if len(open) != 0 {
		t.Errorf("Expected no open orders after full execution, got %d", len(open))
	}
}
