package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string
type MarketType string
type OrderStatus string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

const (
	Stock     MarketType = "stock"
	Commodity MarketType = "commodity"
)

const (
	StatusOpen      OrderStatus = "open"
	StatusMatched   OrderStatus = "matched"
	StatusCancelled OrderStatus = "cancelled"
)

var (
	ErrInvalidOrder    = errors.New("invalid order")
	ErrNotFound        = errors.New("order not found")
	ErrAlreadyTerminal = errors.New("order already terminal")
	ErrPersistence     = errors.New("persistence failure")
)

// MarketKey identifies one order book: a company's stock market, or a
// company's product market on the commodity exchange.
type MarketKey struct {
	Type      MarketType `json:"market_type"`
	CompanyID string     `json:"company_id"`
	ProductID string     `json:"product_id,omitempty"`
}

func (k MarketKey) String() string {
	if k.Type == Commodity {
		return fmt.Sprintf("%s:%s:%s", k.Type, k.CompanyID, k.ProductID)
	}
	return fmt.Sprintf("%s:%s", k.Type, k.CompanyID)
}

// Order represents an order on either exchange. Identity fields are set at
// creation and never change; Remaining and Status are mutated only by the
// matching engine or by cancellation.
type Order struct {
	ID        string          `json:"id"`
	Side      Side            `json:"side"`
	Market    MarketKey       `json:"market"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Remaining int64           `json:"remaining"`
	Status    OrderStatus     `json:"status"`
	Owner     string          `json:"owner"`
	CreatedAt time.Time       `json:"created_at"`
	MatchedAt *time.Time      `json:"matched_at,omitempty"`
}

// Open reports whether the order is visible to the matching algorithm.
func (o *Order) Open() bool {
	return o.Status == StatusOpen && o.Remaining > 0
}

// Clone returns a copy sharing no mutable state with the receiver.
func (o *Order) Clone() *Order {
	c := *o
	if o.MatchedAt != nil {
		t := *o.MatchedAt
		c.MatchedAt = &t
	}
	return &c
}

// fill consumes qty from the order's remaining quantity and, once nothing
// remains, moves the order to its terminal matched state.
func (o *Order) fill(qty int64, now time.Time) {
	o.Remaining -= qty
	if o.Remaining == 0 {
		o.Status = StatusMatched
		o.MatchedAt = &now
	}
}

type orderState struct {
	remaining int64
	status    OrderStatus
	matchedAt *time.Time
}

func (o *Order) snapshot() orderState {
	return orderState{remaining: o.Remaining, status: o.Status, matchedAt: o.MatchedAt}
}

func (o *Order) restore(s orderState) {
	o.Remaining = s.remaining
	o.Status = s.status
	o.MatchedAt = s.matchedAt
}

// Trade records one execution between a buy and a sell order. It references
// both orders but owns neither.
type Trade struct {
	ID          string          `json:"id"`
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	Market      MarketKey       `json:"market"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	TradedAt    time.Time       `json:"traded_at"`
}
