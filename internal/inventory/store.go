package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreConfig holds repository paging limits.
type StoreConfig struct {
	DefaultPageSize int
	MaxPageSize     int

	Logger  *slog.Logger
	Metrics *Metrics
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Store is the repository: every business operation on products and
// orders. It is the sole writer of both entities. Each call acquires a
// handle through the supervisor (failing fast when the database is not
// Connected) and every mutating path runs inside a single transaction
// that rolls back fully on any error.
type Store struct {
	sup *Supervisor
	cfg StoreConfig
	log *slog.Logger
}

// NewStore creates a Store on top of a supervisor.
func NewStore(sup *Supervisor, cfg StoreConfig) *Store {
	cfg = cfg.withDefaults()
	return &Store{sup: sup, cfg: cfg, log: cfg.Logger}
}

// dbq is the subset of database/sql shared by *sql.Conn and *sql.Tx.
type dbq interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const productColumns = `id, name, description, inventory, price`
const orderColumns = `id, reference, product_id, quantity, customer_id, created_at`

// ─── Products ────────────────────────────────────────────────────────────────

// Products returns a page of products ordered by identifier.
func (s *Store) Products(ctx context.Context, skip, limit int) ([]Product, error) {
	skip, limit, err := s.pageBounds(skip, limit)
	if err != nil {
		return nil, s.reject(err)
	}

	var products []Product
	err = s.withConn(ctx, "list products", func(conn *sql.Conn) error {
		products, err = queryProducts(ctx, conn,
			`SELECT `+productColumns+` FROM products ORDER BY id LIMIT ? OFFSET ?`,
			limit, skip,
		)
		return err
	})
	return products, err
}

// ProductByID returns the product with the given identifier.
func (s *Store) ProductByID(ctx context.Context, id int64) (*Product, error) {
	var p *Product
	err := s.withConn(ctx, "get product", func(conn *sql.Conn) error {
		var err error
		p, err = productByIDIn(ctx, conn, id)
		return err
	})
	return p, err
}

// ProductByName returns the product whose name matches exactly
// (case-sensitive).
func (s *Store) ProductByName(ctx context.Context, name string) (*Product, error) {
	if name == "" {
		return nil, s.reject(validationf("product name must not be empty"))
	}

	var p *Product
	err := s.withConn(ctx, "get product by name", func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE name = ?`, name)
		var scanErr error
		p, scanErr = scanProduct(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return notFoundf("no product named %q", name)
		}
		return scanErr
	})
	return p, err
}

// SearchProducts returns products whose name or description contains
// the query as a case-insensitive substring, with the same paging rules
// as Products.
func (s *Store) SearchProducts(ctx context.Context, query string, skip, limit int) ([]Product, error) {
	skip, limit, err := s.pageBounds(skip, limit)
	if err != nil {
		return nil, s.reject(err)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var products []Product
	err = s.withConn(ctx, "search products", func(conn *sql.Conn) error {
		products, err = queryProducts(ctx, conn,
			`SELECT `+productColumns+` FROM products
			 WHERE lower(name) LIKE ? OR lower(description) LIKE ?
			 ORDER BY id LIMIT ? OFFSET ?`,
			pattern, pattern, limit, skip,
		)
		return err
	})
	return products, err
}

// AddProduct creates a new product. A duplicate name surfaces as a
// ValidationError driven by the store's UNIQUE constraint.
func (s *Store) AddProduct(ctx context.Context, p AddProductParams) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, s.reject(err)
	}

	var created *Product
	err := s.withTx(ctx, "add product", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (name, description, inventory, price) VALUES (?, ?, ?, ?)`,
			p.Name, p.Description, p.Inventory, p.Price.String(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return validationf("a product named %q already exists", p.Name)
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = productByIDIn(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", "id", created.ID, "name", created.Name)
	return created, nil
}

// RemoveProduct deletes a product and returns it. Historical orders are
// orphaned, never cascade-deleted: they keep the product id for audit.
func (s *Store) RemoveProduct(ctx context.Context, id int64) (*Product, error) {
	var removed *Product
	err := s.withTx(ctx, "remove product", func(tx *sql.Tx) error {
		var err error
		removed, err = productByIDIn(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product removed", "id", id)
	return removed, nil
}

// AdjustInventory applies an explicit stock delta. A negative delta that
// would take inventory below zero is rejected without any change.
func (s *Store) AdjustInventory(ctx context.Context, id int64, delta int) (*Product, error) {
	var updated *Product
	err := s.withTx(ctx, "adjust inventory", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET inventory = inventory + ? WHERE id = ? AND inventory + ? >= 0`,
			delta, id, delta,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := productByIDIn(ctx, tx, id); err != nil {
				return err
			}
			return validationf("adjustment of %d would make inventory negative", delta)
		}
		updated, err = productByIDIn(ctx, tx, id)
		return err
	})
	return updated, err
}

// ─── Orders ──────────────────────────────────────────────────────────────────

// PlaceOrder atomically validates stock, decrements inventory and
// inserts the order row, all in one transaction.
//
// The decrement is a single conditional UPDATE guarded by
// `inventory >= quantity`, so the check and the write cannot be
// interleaved by a concurrent order: whichever transaction commits
// second re-evaluates the guard against the post-decrement value, and
// inventory can never go negative.
func (s *Store) PlaceOrder(ctx context.Context, productID int64, quantity int, customerID string) (*Order, error) {
	if quantity <= 0 {
		return nil, s.reject(validationf("quantity must be > 0, got %d", quantity))
	}
	if customerID == "" {
		return nil, s.reject(validationf("customer identifier must not be empty"))
	}

	var order *Order
	err := s.withTx(ctx, "place order", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET inventory = inventory - ? WHERE id = ? AND inventory >= ?`,
			quantity, productID, quantity,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var available int
			err := tx.QueryRowContext(ctx,
				`SELECT inventory FROM products WHERE id = ?`, productID).Scan(&available)
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundf("product %d not found", productID)
			}
			if err != nil {
				return err
			}
			return insufficientf("requested %d but only %d in stock", quantity, available)
		}

		created := Now()
		ref := uuid.NewString()
		ins, err := tx.ExecContext(ctx,
			`INSERT INTO orders (reference, product_id, quantity, customer_id, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			ref, productID, quantity, customerID, created,
		)
		if err != nil {
			return err
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return err
		}
		order = &Order{
			ID:         id,
			Reference:  ref,
			ProductID:  productID,
			Quantity:   quantity,
			CustomerID: customerID,
			CreatedAt:  created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cfg.Metrics.recordOrderPlaced()
	s.log.Info("order placed",
		"order_id", order.ID, "product_id", productID, "quantity", quantity)
	return order, nil
}

// OrdersForProduct returns the audit trail of orders for a product id.
// The product itself may already be removed; the read tolerates the
// dangling reference rather than failing.
func (s *Store) OrdersForProduct(ctx context.Context, productID int64) ([]Order, error) {
	var orders []Order
	err := s.withConn(ctx, "list orders", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE product_id = ? ORDER BY id`, productID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var o Order
			if err := rows.Scan(&o.ID, &o.Reference, &o.ProductID, &o.Quantity, &o.CustomerID, &o.CreatedAt); err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	return orders, err
}

// ─── Plumbing ────────────────────────────────────────────────────────────────

// withConn acquires a pooled connection, runs fn, and normalizes the
// error: typed errors pass through, anything else is reported to the
// supervisor for connectivity classification and wrapped as unexpected.
func (s *Store) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := s.sup.Acquire(ctx)
	if err != nil {
		s.cfg.Metrics.recordOpError(ErrorKind(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := fn(conn); err != nil {
		typed := unexpected(op+" failed", err)
		if typed.Kind == KindUnexpected {
			s.sup.ReportFailure(err)
			s.log.Error(op+" failed", "err", err)
		}
		s.cfg.Metrics.recordOpError(typed.Kind)
		return typed
	}
	return nil
}

// withTx runs fn inside a transaction on an acquired connection. Any
// error (including a failed commit) triggers a full rollback before the
// typed error reaches the caller; a cancelled context rolls back too,
// so no pooled connection or open transaction is ever leaked.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return s.withConn(ctx, op, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// reject records a locally-raised validation error and returns it.
func (s *Store) reject(err error) error {
	s.cfg.Metrics.recordOpError(ErrorKind(err))
	return err
}

// pageBounds validates and clamps skip/limit.
func (s *Store) pageBounds(skip, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, validationf("skip must be >= 0, got %d", skip)
	}
	if limit < 0 {
		return 0, 0, validationf("limit must be >= 0, got %d", limit)
	}
	if limit == 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	return skip, limit, nil
}

func productByIDIn(ctx context.Context, q dbq, id int64) (*Product, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf("product %d not found", id)
	}
	return p, err
}

func queryProducts(ctx context.Context, q dbq, query string, args ...any) ([]Product, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []Product
	for rows.Next() {
		var p Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Inventory, &price); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Inventory, &price); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &p, nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
