// Package botfeed drives synthetic trading activity so the books of a fresh
// game world are never empty. Bots go through the same submission path as
// human players; nothing here touches matching internals.
package botfeed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tycoon-exchange/internal/engine"
	"tycoon-exchange/internal/markets"
	"tycoon-exchange/pkg/utils"
)

// Submitter is the single entry point bots are allowed to call.
type Submitter interface {
	SubmitOrder(ctx context.Context, req engine.SubmitRequest) (*engine.Order, []*engine.Trade, error)
}

// Universe supplies the markets bots can trade in.
type Universe interface {
	Companies() []markets.Company
	Products() []markets.Product
}

// Simulated price bands carried over from the game's bot behavior: stock
// quotes sit in a fixed band, commodity quotes within ±20% of the product's
// reference market price.
const (
	stockPriceMin = 80
	stockPriceMax = 120
	stockQtyMin   = 1
	stockQtyMax   = 20

	commodityQtyMin = 5
	commodityQtyMax = 50
)

var commoditySpread = decimal.NewFromFloat(0.20)

type Feed struct {
	submitter Submitter
	universe  Universe
	bots      []string
	interval  time.Duration
	rng       *rand.Rand
	stop      chan struct{}
	done      chan struct{}
}

type Options struct {
	Interval time.Duration
	// Bots is the number of simulated participants per tick.
	Bots int
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64
}

func New(submitter Submitter, universe Universe, opts Options) *Feed {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Bots <= 0 {
		opts.Bots = 3
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	bots := make([]string, opts.Bots)
	for i := range bots {
		bots[i] = botName(i)
	}
	return &Feed{
		submitter: submitter,
		universe:  universe,
		bots:      bots,
		interval:  opts.Interval,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the feed loop. Stop blocks until the loop exits.
func (f *Feed) Start() {
	go f.run()
}

func (f *Feed) Stop() {
	close(f.stop)
	<-f.done
}

func (f *Feed) run() {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.tick(context.Background())
		}
	}
}

// tick submits one order per bot: 50/50 stock vs commodity, uniform random
// market and side, price and quantity within the simulated bands.
func (f *Feed) tick(ctx context.Context) {
	for _, bot := range f.bots {
		req, ok := f.randomRequest(bot)
		if !ok {
			continue
		}
		_, trades, err := f.submitter.SubmitOrder(ctx, req)
		if err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"bot":    bot,
				"market": req.Market.String(),
				"error":  err.Error(),
			}).Warn("Bot order rejected")
			continue
		}
		if len(trades) > 0 {
			utils.Logger.WithFields(logrus.Fields{
				"bot":    bot,
				"market": req.Market.String(),
				"trades": len(trades),
			}).Info("Bot order matched")
		}
	}
}

func (f *Feed) randomRequest(bot string) (engine.SubmitRequest, bool) {
	side := engine.Buy
	if f.rng.Intn(2) == 0 {
		side = engine.Sell
	}

	if f.rng.Intn(2) == 0 {
		companies := f.universe.Companies()
		if len(companies) == 0 {
			return engine.SubmitRequest{}, false
		}
		company := companies[f.rng.Intn(len(companies))]
		return engine.SubmitRequest{
			Side: side,
			Market: engine.MarketKey{
				Type:      engine.Stock,
				CompanyID: company.ID,
			},
			Price:    decimal.NewFromInt(f.randBetween(stockPriceMin, stockPriceMax)),
			Quantity: f.randBetween(stockQtyMin, stockQtyMax),
			Owner:    bot,
		}, true
	}

	products := f.universe.Products()
	if len(products) == 0 {
		return engine.SubmitRequest{}, false
	}
	product := products[f.rng.Intn(len(products))]
	return engine.SubmitRequest{
		Side: side,
		Market: engine.MarketKey{
			Type:      engine.Commodity,
			CompanyID: product.CompanyID,
			ProductID: product.ID,
		},
		Price:    f.randCommodityPrice(product.MarketPrice),
		Quantity: f.randBetween(commodityQtyMin, commodityQtyMax),
		Owner:    bot,
	}, true
}

// randCommodityPrice picks a whole-number price within ±20% of the
// reference price, never below 1.
func (f *Feed) randCommodityPrice(reference decimal.Decimal) decimal.Decimal {
	lo := reference.Sub(reference.Mul(commoditySpread)).Floor().IntPart()
	hi := reference.Add(reference.Mul(commoditySpread)).Floor().IntPart()
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return decimal.NewFromInt(f.randBetween(lo, hi))
}

func (f *Feed) randBetween(min, max int64) int64 {
	return min + f.rng.Int63n(max-min+1)
}

func botName(i int) string {
	return fmt.Sprintf("bot-%d", i+1)
}
