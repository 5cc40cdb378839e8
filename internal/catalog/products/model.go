package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates product lifecycle states. Products are never hard-deleted
// in the default flow; the status toggle is used instead.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Attribute is a free-form name/value pair attached to a product.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PriceLevel maps a minimum order quantity to a unit price.
type PriceLevel struct {
	MinQuantity int64           `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Product represents a catalog product.
type Product struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	CategoryID  int64           `json:"category_id"`
	Unit        string          `json:"unit"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Attributes  []Attribute     `json:"attributes"`
	PriceLevels []PriceLevel    `json:"price_levels"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListPrice returns the price a single unit is listed at, or zero when the
// product carries no price levels.
func (p Product) ListPrice() decimal.Decimal {
	if len(p.PriceLevels) == 0 {
		return decimal.Zero
	}
	return p.PriceLevels[0].UnitPrice
}

// PriceFor returns the unit price for the given quantity: the level with the
// highest MinQuantity not exceeding qty. Falls back to ListPrice.
func (p Product) PriceFor(qty int64) decimal.Decimal {
	price := p.ListPrice()
	for _, level := range p.PriceLevels {
		if level.MinQuantity <= qty {
			price = level.UnitPrice
		}
	}
	return price
}
