// Package mysql provides gorm-backed repositories for durable order and
// trade storage.
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tycoon-exchange/internal/engine"
)

// OrderModel maps orders to the exchange_orders table.
type OrderModel struct {
	ID         string          `gorm:"column:id;type:varchar(36);primaryKey"`
	Side       string          `gorm:"column:side;type:varchar(4);not null"`
	MarketType string          `gorm:"column:market_type;type:varchar(10);index:idx_market;not null"`
	CompanyID  string          `gorm:"column:company_id;type:varchar(36);index:idx_market;not null"`
	ProductID  string          `gorm:"column:product_id;type:varchar(36);index:idx_market"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null"`
	Quantity   int64           `gorm:"column:quantity;not null"`
	Remaining  int64           `gorm:"column:remaining;not null"`
	Status     string          `gorm:"column:status;type:varchar(10);index;not null"`
	Owner      string          `gorm:"column:owner;type:varchar(64);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null"`
	MatchedAt  *time.Time      `gorm:"column:matched_at"`
}

func (OrderModel) TableName() string { return "exchange_orders" }

// TradeModel maps trades to the exchange_trades table.
type TradeModel struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey"`
	BuyOrderID  string          `gorm:"column:buy_order_id;type:varchar(36);index;not null"`
	SellOrderID string          `gorm:"column:sell_order_id;type:varchar(36);index;not null"`
	MarketType  string          `gorm:"column:market_type;type:varchar(10);index:idx_trade_market;not null"`
	CompanyID   string          `gorm:"column:company_id;type:varchar(36);index:idx_trade_market;not null"`
	ProductID   string          `gorm:"column:product_id;type:varchar(36);index:idx_trade_market"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null"`
	Quantity    int64           `gorm:"column:quantity;not null"`
	TradedAt    time.Time       `gorm:"column:traded_at;index;not null"`
}

func (TradeModel) TableName() string { return "exchange_trades" }

type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and migrates the exchange tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OrderModel{}, &TradeModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveOrder(ctx context.Context, o *engine.Order) error {
	return s.db.WithContext(ctx).Save(toOrderModel(o)).Error
}

func (s *Store) GetOrder(ctx context.Context, id string) (*engine.Order, error) {
	var m OrderModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toOrder(&m), nil
}

func (s *Store) ListOpenOrders(ctx context.Context, key engine.MarketKey) ([]*engine.Order, error) {
	var models []OrderModel
	err := s.db.WithContext(ctx).
		Where("market_type = ? AND company_id = ? AND product_id = ? AND status = ? AND remaining > 0",
			string(key.Type), key.CompanyID, key.ProductID, string(engine.StatusOpen)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	orders := make([]*engine.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toOrder(&models[i]))
	}
	return orders, nil
}

func (s *Store) SaveTrade(ctx context.Context, t *engine.Trade) error {
	return s.db.WithContext(ctx).Create(toTradeModel(t)).Error
}

func (s *Store) ListTrades(ctx context.Context, key engine.MarketKey, limit int) ([]*engine.Trade, error) {
	var models []TradeModel
	q := s.db.WithContext(ctx).
		Where("market_type = ? AND company_id = ? AND product_id = ?",
			string(key.Type), key.CompanyID, key.ProductID).
		Order("traded_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	trades := make([]*engine.Trade, 0, len(models))
	for i := range models {
		trades = append(trades, toTrade(&models[i]))
	}
	return trades, nil
}

// RecordExecution commits the trade and both order updates in one
// transaction.
func (s *Store) RecordExecution(ctx context.Context, t *engine.Trade, buy, sell *engine.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toTradeModel(t)).Error; err != nil {
			return err
		}
		if err := tx.Save(toOrderModel(buy)).Error; err != nil {
			return err
		}
		return tx.Save(toOrderModel(sell)).Error
	})
}

func toOrderModel(o *engine.Order) *OrderModel {
	return &OrderModel{
		ID:         o.ID,
		Side:       string(o.Side),
		MarketType: string(o.Market.Type),
		CompanyID:  o.Market.CompanyID,
		ProductID:  o.Market.ProductID,
		Price:      o.Price,
		Quantity:   o.Quantity,
		Remaining:  o.Remaining,
		Status:     string(o.Status),
		Owner:      o.Owner,
		CreatedAt:  o.CreatedAt,
		MatchedAt:  o.MatchedAt,
	}
}

func toOrder(m *OrderModel) *engine.Order {
	return &engine.Order{
		ID:   m.ID,
		Side: engine.Side(m.Side),
		Market: engine.MarketKey{
			Type:      engine.MarketType(m.MarketType),
			CompanyID: m.CompanyID,
			ProductID: m.ProductID,
		},
		Price:     m.Price,
		Quantity:  m.Quantity,
		Remaining: m.Remaining,
		Status:    engine.OrderStatus(m.Status),
		Owner:     m.Owner,
		CreatedAt: m.CreatedAt,
		MatchedAt: m.MatchedAt,
	}
}

func toTradeModel(t *engine.Trade) *TradeModel {
	return &TradeModel{
		ID:          t.ID,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		MarketType:  string(t.Market.Type),
		CompanyID:   t.Market.CompanyID,
		ProductID:   t.Market.ProductID,
		Price:       t.Price,
		Quantity:    t.Quantity,
		TradedAt:    t.TradedAt,
	}
}

func toTrade(m *TradeModel) *engine.Trade {
	return &engine.Trade{
		ID:          m.ID,
		BuyOrderID:  m.BuyOrderID,
		SellOrderID: m.SellOrderID,
		Market: engine.MarketKey{
			Type:      engine.MarketType(m.MarketType),
			CompanyID: m.CompanyID,
			ProductID: m.ProductID,
		},
		Price:    m.Price,
		Quantity: m.Quantity,
		TradedAt: m.TradedAt,
	}
}
