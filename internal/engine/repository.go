package engine

import "context"

// OrderRepository is the durable store for orders. Implementations must
// return copies: the engine mutates the orders it loads and relies on saves
// being the only way those mutations become visible.
type OrderRepository interface {
	SaveOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	// ListOpenOrders returns every open order of the market with positive
	// remaining quantity, both sides, ordered by submission time.
	ListOpenOrders(ctx context.Context, key MarketKey) ([]*Order, error)
}

// TradeRepository is the append-only trade log.
type TradeRepository interface {
	SaveTrade(ctx context.Context, t *Trade) error
	// ListTrades returns up to limit trades of the market, most recent first.
	ListTrades(ctx context.Context, key MarketKey, limit int) ([]*Trade, error)
}

// Store is the persistence contract the matching engine requires. Beyond the
// plain repositories it must record a trade together with the two order
// mutations it produced as one atomic unit, so a trade can never be durable
// without its quantity decrements or vice versa.
type Store interface {
	OrderRepository
	TradeRepository
	RecordExecution(ctx context.Context, t *Trade, buy, sell *Order) error
}

// ReferenceData answers whether a company or product exists. The engine uses
// it to reject orders against unknown markets; nil disables the check.
type ReferenceData interface {
	HasCompany(companyID string) bool
	HasProduct(companyID, productID string) bool
}
