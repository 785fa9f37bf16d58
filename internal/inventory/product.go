// Package inventory implements the resilient data-access core of the
// inventory tool server: the entity model, the connection supervisor
// that owns the availability state machine and reconnection schedule,
// the schema manager, and the repository with its business invariants
// (non-negative inventory, atomic stock decrement).
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item with a tracked stock level.
// Name is unique across all products (case-sensitive, enforced by a
// UNIQUE constraint in the store, not by an application pre-read).
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Inventory   int             `json:"inventory"`
	Price       decimal.Decimal `json:"price"`
}

// Order records a fulfilled stock decrement. Orders are immutable once
// created and survive removal of the referenced product, so ProductID
// may dangle on audit reads.
type Order struct {
	ID         int64  `json:"id"`
	Reference  string `json:"reference"`
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
	CustomerID string `json:"customer_id"`
	CreatedAt  string `json:"created_at"`
}

// AddProductParams holds the input for creating a new product.
type AddProductParams struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Inventory   int             `json:"inventory"`
	Price       decimal.Decimal `json:"price"`
}

// Validate checks the business invariants for product creation.
func (p AddProductParams) Validate() error {
	if p.Name == "" {
		return validationf("product name must not be empty")
	}
	if p.Inventory < 0 {
		return validationf("inventory must be >= 0, got %d", p.Inventory)
	}
	if p.Price.IsNegative() {
		return validationf("price must be >= 0, got %s", p.Price)
	}
	return nil
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
