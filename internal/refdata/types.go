// Package refdata provides read-only lookups of products, customers, costs,
// pricing policies and historical orders.
package refdata

import "context"

// Product is a catalogue row keyed by SKU.
type Product struct {
	ProductID string  `db:"product_id"`
	SKU       string  `db:"sku"`
	Family    string  `db:"family"`
	Name      string  `db:"name"`
	ListPrice float64 `db:"list_price"`
}

// Customer is a CRM row keyed by customer ID.
type Customer struct {
	CustomerID string `db:"customer_id"`
	Segment    string `db:"segment"`
	Region     string `db:"region"`
	Industry   string `db:"industry"`
	Country    string `db:"country"`
}

// Cost holds the cost of goods sold for a product.
type Cost struct {
	ProductID string  `db:"product_id"`
	COGS      float64 `db:"cogs"`
}

// Policy is a margin policy row for a region and product family.
type Policy struct {
	Region            string  `db:"region"`
	Family            string  `db:"family"`
	MinMarginPct      float64 `db:"min_margin_pct"`
	CeilingPct        float64 `db:"ceiling_pct"`
	ApprovalBandsJSON string  `db:"approval_bands_json"`
}

// Order is a historical quote outcome used for training.
type Order struct {
	OrderID         string  `db:"order_id"`
	CustomerID      string  `db:"customer_id"`
	ProductID       string  `db:"product_id"`
	Quantity        int     `db:"quantity"`
	NetPrice        float64 `db:"net_price"`
	Discount        float64 `db:"discount"`
	CompetitorPrice float64 `db:"competitor_price"`
	Channel         string  `db:"channel"`
	Won             bool    `db:"won_flag"`
}

// Gateway resolves reference rows. A missing row is reported through the
// found flag and is never an error; errors are reserved for I/O failures.
type Gateway interface {
	Product(ctx context.Context, sku string) (Product, bool, error)
	Customer(ctx context.Context, customerID string) (Customer, bool, error)
	Cost(ctx context.Context, productID string) (Cost, bool, error)
	Policy(ctx context.Context, region, family string) (Policy, bool, error)
}

// Source supplies the complete set of tables, as needed for model training.
type Source interface {
	Tables(ctx context.Context) (Tables, error)
}

// Tables is the full set of reference tables as loaded from a source.
type Tables struct {
	Products  []Product
	Customers []Customer
	Costs     []Cost
	Policies  []Policy
	Orders    []Order
}
