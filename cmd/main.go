package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"tycoon-exchange/internal/config"
	"tycoon-exchange/internal/engine"
	"tycoon-exchange/internal/engine/botfeed"
	"tycoon-exchange/internal/handlers"
	"tycoon-exchange/internal/markets"
	memorystore "tycoon-exchange/internal/store/memory"
	mysqlstore "tycoon-exchange/internal/store/mysql"
	"tycoon-exchange/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	catalog := markets.NewCatalog()
	if err := seedCatalog(catalog); err != nil {
		log.Fatalf("seeding catalog: %v", err)
	}

	var store engine.Store
	if cfg.MySQLDSN != "" {
		store, err = mysqlstore.Open(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("opening mysql store: %v", err)
		}
		utils.Logger.Info("Using MySQL store")
	} else {
		store = memorystore.New()
		utils.Logger.Info("Using in-memory store")
	}

	matchingEngine := engine.NewMatchingEngine(store, catalog)

	feed := botfeed.New(matchingEngine, catalog, botfeed.Options{
		Interval: cfg.BotInterval,
		Bots:     cfg.BotCount,
	})
	feed.Start()
	defer feed.Stop()

	r := mux.NewRouter()
	handlers.NewHandler(matchingEngine).SetupRoutes(r)

	fmt.Printf("Server starting on %s\n", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}

// seedCatalog lists the starter companies and products of a fresh game
// world.
func seedCatalog(catalog *markets.Catalog) error {
	companies := []markets.Company{
		{ID: "alphatech", Name: "AlphaTech"},
		{ID: "greenfarms", Name: "GreenFarms"},
		{ID: "steelmakers", Name: "SteelMakers"},
	}
	for _, c := range companies {
		if err := catalog.AddCompany(c); err != nil {
			return err
		}
	}
	products := []markets.Product{
		{ID: "wheat", CompanyID: "greenfarms", Name: "Wheat", MarketPrice: decimal.NewFromInt(25)},
		{ID: "corn", CompanyID: "greenfarms", Name: "Corn", MarketPrice: decimal.NewFromInt(18)},
		{ID: "steel-beam", CompanyID: "steelmakers", Name: "Steel Beam", MarketPrice: decimal.NewFromInt(140)},
	}
	for _, p := range products {
		if err := catalog.AddProduct(p); err != nil {
			return err
		}
	}
	return nil
}
