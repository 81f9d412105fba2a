package refdata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CSV file names expected inside a data directory.
const (
	ProductsFile  = "products.csv"
	CustomersFile = "customers.csv"
	CostsFile     = "cogs.csv"
	PolicyFile    = "policy.csv"
	OrdersFile    = "orders.csv"
)

// LoadCSV reads all reference tables from dir. A missing file yields an empty
// table and a warning so lookups degrade to defaults; malformed files are
// errors.
func LoadCSV(logger *zap.Logger, dir string) (*Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tables Tables
	loaders := []struct {
		file string
		load func(row Row) error
	}{
		{ProductsFile, func(r Row) error {
			p := Product{
				ProductID: r.Str("product_id"),
				SKU:       r.Str("sku"),
				Family:    r.Str("family"),
				Name:      r.Str("name"),
			}
			var err error
			if p.ListPrice, err = r.Float("list_price"); err != nil {
				return err
			}
			tables.Products = append(tables.Products, p)
			return nil
		}},
		{CustomersFile, func(r Row) error {
			tables.Customers = append(tables.Customers, Customer{
				CustomerID: r.Str("customer_id"),
				Segment:    r.Str("segment"),
				Region:     r.Str("region"),
				Industry:   r.Str("industry"),
				Country:    r.Str("country"),
			})
			return nil
		}},
		{CostsFile, func(r Row) error {
			cogs, err := r.Float("cogs")
			if err != nil {
				return err
			}
			tables.Costs = append(tables.Costs, Cost{ProductID: r.Str("product_id"), COGS: cogs})
			return nil
		}},
		{PolicyFile, func(r Row) error {
			p := Policy{
				Region:            r.Str("region"),
				Family:            r.Str("family"),
				ApprovalBandsJSON: r.Str("approval_bands_json"),
			}
			var err error
			if p.MinMarginPct, err = r.Float("min_margin_pct"); err != nil {
				return err
			}
			if p.CeilingPct, err = r.Float("ceiling_pct"); err != nil {
				return err
			}
			tables.Policies = append(tables.Policies, p)
			return nil
		}},
		{OrdersFile, func(r Row) error {
			o := Order{
				OrderID:    r.Str("order_id"),
				CustomerID: r.Str("customer_id"),
				ProductID:  r.Str("product_id"),
				Channel:    r.Str("channel"),
			}
			var err error
			if o.Quantity, err = r.Int("quantity"); err != nil {
				return err
			}
			if o.NetPrice, err = r.Float("net_price"); err != nil {
				return err
			}
			if o.Discount, err = r.Float("discount"); err != nil {
				return err
			}
			if o.CompetitorPrice, err = r.Float("competitor_price"); err != nil {
				return err
			}
			if o.Won, err = r.Bool("won_flag"); err != nil {
				return err
			}
			tables.Orders = append(tables.Orders, o)
			return nil
		}},
	}

	for _, l := range loaders {
		path := filepath.Join(dir, l.file)
		n, err := readCSV(path, l.load)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("reference table missing, lookups will use defaults",
					zap.String("op", "refdata.LoadCSV"),
					zap.String("file", path),
				)
				continue
			}
			return nil, err
		}
		logger.Debug("loaded reference table",
			zap.String("op", "refdata.LoadCSV"),
			zap.String("file", path),
			zap.Int("rows", n),
		)
	}

	return NewSnapshot(tables), nil
}

func readCSV(path string, load func(row Row) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	n, err := ReadRows(f, nil, load)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
