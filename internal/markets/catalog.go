package markets

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Company is a listed company whose shares trade on the stock exchange.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a company's good traded on the commodity exchange. MarketPrice
// is the reference price liquidity bots quote around.
type Product struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	Name        string          `json:"name"`
	MarketPrice decimal.Decimal `json:"market_price"`
}

// Catalog is the in-memory reference-data registry: which companies and
// products exist and therefore which markets accept orders.
type Catalog struct {
	mu         sync.RWMutex
	companies  map[string]Company
	products   map[string]Product
	companyIDs []string
	productIDs []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		companies: make(map[string]Company),
		products:  make(map[string]Product),
	}
}

func (c *Catalog) AddCompany(company Company) error {
	if company.ID == "" {
		return fmt.Errorf("company id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.companies[company.ID]; !ok {
		c.companyIDs = append(c.companyIDs, company.ID)
	}
	c.companies[company.ID] = company
	return nil
}

// AddProduct registers a product; its company must already be listed.
func (c *Catalog) AddProduct(product Product) error {
	if product.ID == "" {
		return fmt.Errorf("product id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.companies[product.CompanyID]; !ok {
		return fmt.Errorf("unknown company %s for product %s", product.CompanyID, product.ID)
	}
	if _, ok := c.products[product.ID]; !ok {
		c.productIDs = append(c.productIDs, product.ID)
	}
	c.products[product.ID] = product
	return nil
}

// Companies returns every listed company in registration order.
func (c *Catalog) Companies() []Company {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Company, 0, len(c.companyIDs))
	for _, id := range c.companyIDs {
		out = append(out, c.companies[id])
	}
	return out
}

// Products returns every listed product in registration order.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.productIDs))
	for _, id := range c.productIDs {
		out = append(out, c.products[id])
	}
	return out
}

func (c *Catalog) HasCompany(companyID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.companies[companyID]
	return ok
}

func (c *Catalog) HasProduct(companyID, productID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return ok && p.CompanyID == companyID
}

func (c *Catalog) ProductByID(productID string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p, ok
}
