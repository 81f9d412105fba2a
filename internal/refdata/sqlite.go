package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	product_id TEXT NOT NULL,
	sku        TEXT NOT NULL,
	family     TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	list_price REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS products_sku ON products (sku);

CREATE TABLE IF NOT EXISTS customers (
	customer_id TEXT NOT NULL,
	segment     TEXT NOT NULL DEFAULT '',
	region      TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS customers_id ON customers (customer_id);

CREATE TABLE IF NOT EXISTS cogs (
	product_id TEXT NOT NULL,
	cogs       REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS cogs_product ON cogs (product_id);

CREATE TABLE IF NOT EXISTS policy (
	region              TEXT NOT NULL,
	family              TEXT NOT NULL,
	min_margin_pct      REAL NOT NULL,
	ceiling_pct         REAL NOT NULL,
	approval_bands_json TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS policy_key ON policy (region, family);

CREATE TABLE IF NOT EXISTS orders (
	order_id         TEXT NOT NULL,
	customer_id      TEXT NOT NULL,
	product_id       TEXT NOT NULL,
	quantity         INTEGER NOT NULL,
	net_price        REAL NOT NULL,
	discount         REAL NOT NULL DEFAULT 0,
	competitor_price REAL NOT NULL DEFAULT 0,
	channel          TEXT NOT NULL DEFAULT '',
	won_flag         INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore serves reference lookups from a SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// OpenSQLite opens (and if needed creates) the reference database at dbPath.
func OpenSQLite(logger *zap.Logger, dbPath string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import replaces the contents of every table with the given rows.
func (s *SQLiteStore) Import(ctx context.Context, tables Tables) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"products", "customers", "cogs", "policy", "orders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	inserts := []struct {
		query string
		rows  func() []interface{}
	}{
		{`INSERT INTO products (product_id, sku, family, name, list_price)
			VALUES (:product_id, :sku, :family, :name, :list_price)`, func() []interface{} {
			rows := make([]interface{}, len(tables.Products))
			for i := range tables.Products {
				rows[i] = tables.Products[i]
			}
			return rows
		}},
		{`INSERT INTO customers (customer_id, segment, region, industry, country)
			VALUES (:customer_id, :segment, :region, :industry, :country)`, func() []interface{} {
			rows := make([]interface{}, len(tables.Customers))
			for i := range tables.Customers {
				rows[i] = tables.Customers[i]
			}
			return rows
		}},
		{`INSERT INTO cogs (product_id, cogs) VALUES (:product_id, :cogs)`, func() []interface{} {
			rows := make([]interface{}, len(tables.Costs))
			for i := range tables.Costs {
				rows[i] = tables.Costs[i]
			}
			return rows
		}},
		{`INSERT INTO policy (region, family, min_margin_pct, ceiling_pct, approval_bands_json)
			VALUES (:region, :family, :min_margin_pct, :ceiling_pct, :approval_bands_json)`, func() []interface{} {
			rows := make([]interface{}, len(tables.Policies))
			for i := range tables.Policies {
				rows[i] = tables.Policies[i]
			}
			return rows
		}},
		{`INSERT INTO orders (order_id, customer_id, product_id, quantity, net_price, discount, competitor_price, channel, won_flag)
			VALUES (:order_id, :customer_id, :product_id, :quantity, :net_price, :discount, :competitor_price, :channel, :won_flag)`, func() []interface{} {
			rows := make([]interface{}, len(tables.Orders))
			for i := range tables.Orders {
				rows[i] = tables.Orders[i]
			}
			return rows
		}},
	}

	for _, ins := range inserts {
		for _, row := range ins.rows() {
			if _, err := tx.NamedExecContext(ctx, ins.query, row); err != nil {
				return fmt.Errorf("import row: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("reference data imported",
		zap.String("op", "refdata.Import"),
		zap.Int("products", len(tables.Products)),
		zap.Int("customers", len(tables.Customers)),
		zap.Int("costs", len(tables.Costs)),
		zap.Int("policies", len(tables.Policies)),
		zap.Int("orders", len(tables.Orders)),
	)
	return nil
}

// Product looks up a product by SKU.
func (s *SQLiteStore) Product(ctx context.Context, sku string) (Product, bool, error) {
	var p Product
	found, err := s.getOne(ctx, &p,
		`SELECT product_id, sku, family, name, list_price FROM products WHERE sku = ? ORDER BY rowid LIMIT 1`, sku)
	return p, found, err
}

// Customer looks up a customer by ID.
func (s *SQLiteStore) Customer(ctx context.Context, customerID string) (Customer, bool, error) {
	var c Customer
	found, err := s.getOne(ctx, &c,
		`SELECT customer_id, segment, region, industry, country FROM customers WHERE customer_id = ? ORDER BY rowid LIMIT 1`, customerID)
	return c, found, err
}

// Cost looks up the cost of goods for a product ID.
func (s *SQLiteStore) Cost(ctx context.Context, productID string) (Cost, bool, error) {
	var c Cost
	found, err := s.getOne(ctx, &c,
		`SELECT product_id, cogs FROM cogs WHERE product_id = ? ORDER BY rowid LIMIT 1`, productID)
	return c, found, err
}

// Policy looks up the policy row for a region and product family.
func (s *SQLiteStore) Policy(ctx context.Context, region, family string) (Policy, bool, error) {
	var p Policy
	found, err := s.getOne(ctx, &p,
		`SELECT region, family, min_margin_pct, ceiling_pct, approval_bands_json FROM policy
		WHERE region = ? AND family = ? ORDER BY rowid LIMIT 1`, region, family)
	return p, found, err
}

// Orders returns all historical orders in insertion order.
func (s *SQLiteStore) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.db.SelectContext(ctx, &orders,
		`SELECT order_id, customer_id, product_id, quantity, net_price, discount, competitor_price, channel, won_flag
		FROM orders ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

// Tables reads every table in insertion order.
func (s *SQLiteStore) Tables(ctx context.Context) (Tables, error) {
	var t Tables
	queries := []struct {
		dest  interface{}
		query string
	}{
		{&t.Products, `SELECT product_id, sku, family, name, list_price FROM products ORDER BY rowid`},
		{&t.Customers, `SELECT customer_id, segment, region, industry, country FROM customers ORDER BY rowid`},
		{&t.Costs, `SELECT product_id, cogs FROM cogs ORDER BY rowid`},
		{&t.Policies, `SELECT region, family, min_margin_pct, ceiling_pct, approval_bands_json FROM policy ORDER BY rowid`},
	}
	for _, q := range queries {
		if err := s.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return Tables{}, fmt.Errorf("select tables: %w", err)
		}
	}
	orders, err := s.Orders(ctx)
	if err != nil {
		return Tables{}, err
	}
	t.Orders = orders
	return t, nil
}

func (s *SQLiteStore) getOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := s.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reference lookup: %w", err)
	}
	return true, nil
}
