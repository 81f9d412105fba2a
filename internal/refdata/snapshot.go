package refdata

import "context"

type policyKey struct {
	region string
	family string
}

// Snapshot is an immutable in-memory index over a set of Tables. It is safe
// for concurrent readers.
type Snapshot struct {
	tables    Tables
	products  map[string]Product
	customers map[string]Customer
	costs     map[string]Cost
	policies  map[policyKey]Policy
}

// NewSnapshot indexes the tables. When keys repeat, the first row wins.
func NewSnapshot(tables Tables) *Snapshot {
	s := &Snapshot{
		tables:    tables,
		products:  make(map[string]Product, len(tables.Products)),
		customers: make(map[string]Customer, len(tables.Customers)),
		costs:     make(map[string]Cost, len(tables.Costs)),
		policies:  make(map[policyKey]Policy, len(tables.Policies)),
	}
	for _, p := range tables.Products {
		if _, ok := s.products[p.SKU]; !ok {
			s.products[p.SKU] = p
		}
	}
	for _, c := range tables.Customers {
		if _, ok := s.customers[c.CustomerID]; !ok {
			s.customers[c.CustomerID] = c
		}
	}
	for _, c := range tables.Costs {
		if _, ok := s.costs[c.ProductID]; !ok {
			s.costs[c.ProductID] = c
		}
	}
	for _, p := range tables.Policies {
		key := policyKey{region: p.Region, family: p.Family}
		if _, ok := s.policies[key]; !ok {
			s.policies[key] = p
		}
	}
	return s
}

// Tables returns the tables the snapshot was built from.
func (s *Snapshot) Tables(ctx context.Context) (Tables, error) {
	if err := ctx.Err(); err != nil {
		return Tables{}, err
	}
	return s.tables, nil
}

// Product looks up a product by SKU.
func (s *Snapshot) Product(ctx context.Context, sku string) (Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, false, err
	}
	p, ok := s.products[sku]
	return p, ok, nil
}

// Customer looks up a customer by ID.
func (s *Snapshot) Customer(ctx context.Context, customerID string) (Customer, bool, error) {
	if err := ctx.Err(); err != nil {
		return Customer{}, false, err
	}
	c, ok := s.customers[customerID]
	return c, ok, nil
}

// Cost looks up the cost of goods for a product ID.
func (s *Snapshot) Cost(ctx context.Context, productID string) (Cost, bool, error) {
	if err := ctx.Err(); err != nil {
		return Cost{}, false, err
	}
	c, ok := s.costs[productID]
	return c, ok, nil
}

// Policy looks up the policy row for a region and product family.
func (s *Snapshot) Policy(ctx context.Context, region, family string) (Policy, bool, error) {
	if err := ctx.Err(); err != nil {
		return Policy{}, false, err
	}
	p, ok := s.policies[policyKey{region: region, family: family}]
	return p, ok, nil
}

// Orders returns the historical orders.
func (s *Snapshot) Orders(ctx context.Context) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.tables.Orders, nil
}
