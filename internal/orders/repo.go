package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo is the PostgreSQL implementation of Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError turns driver errors into the package sentinels.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInUse, pgErr.ConstraintName)
		}
	}
	return err
}

// WithTx runs fn in one transaction; any error rolls everything back.
func (r *Repo) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return mapPgError(tx.Commit(ctx))
}

type pgTx struct{ tx pgx.Tx }

// NextOrderSequence bumps the per-year counter row. The upsert holds the row
// lock until commit, which serialises concurrent orders of the same year. The
// counter never falls behind order ids that were written without it.
func (t *pgTx) NextOrderSequence(ctx context.Context, year int) (int, error) {
	var seq int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_sequences (year, last_value)
		SELECT $1, COALESCE(MAX(split_part(order_id, '-', 2)::int), 0) + 1
		FROM (
			SELECT order_id FROM orders WHERE order_id LIKE $2
			ORDER BY order_id DESC LIMIT 1
		) latest
		ON CONFLICT (year) DO UPDATE
		SET last_value = GREATEST(order_sequences.last_value + 1, EXCLUDED.last_value)
		RETURNING last_value`,
		year, OrderNumberPrefix(year),
	).Scan(&seq)
	if err != nil {
		return 0, mapPgError(err)
	}
	return seq, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (order_id, customer_id, marketplace_id, status, total_amount, currency, order_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		o.OrderID, o.CustomerID, o.MarketplaceID, string(o.Status), o.TotalAmount, o.Currency, o.OrderDate, o.CreatedAt,
	).Scan(&o.ID)
	return mapPgError(err)
}

func (t *pgTx) InsertOrderItem(ctx context.Context, it *OrderItem) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, name, sku, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		it.OrderID, it.ProductID, it.Name, it.SKU, it.Quantity, it.Price,
	).Scan(&it.ID)
	return mapPgError(err)
}

func (t *pgTx) LockProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) LockProductBySKU(ctx context.Context, sku string) (Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1 FOR UPDATE`, sku))
}

func (t *pgTx) SetProductStock(ctx context.Context, id int64, stock int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

const orderColumns = `id, order_id, customer_id, marketplace_id, status, total_amount, currency, order_date, created_at`

func scanOrder(row scanner) (Order, error) {
	var o Order
	var status string
	if err := row.Scan(&o.ID, &o.OrderID, &o.CustomerID, &o.MarketplaceID, &status, &o.TotalAmount, &o.Currency, &o.OrderDate, &o.CreatedAt); err != nil {
		return Order{}, mapPgError(err)
	}
	o.Status = Status(status)
	return o, nil
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) UpdateOrder(ctx context.Context, o Order) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET status = $2, currency = $3, customer_id = $4, marketplace_id = $5
		WHERE id = $1`,
		o.ID, string(o.Status), o.Currency, o.CustomerID, o.MarketplaceID)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const orderDetailsQuery = `
	SELECT o.id, o.order_id, o.customer_id, o.marketplace_id, o.status, o.total_amount, o.currency, o.order_date, o.created_at,
	       c.id, c.name, c.email, c.phone, c.address, c.created_at,
	       m.id, m.name, m.type, m.is_connected, m.api_key, m.api_secret, m.store_url, m.last_sync, m.stock_tracking, m.auto_update_stock, m.created_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
	JOIN marketplaces m ON m.id = o.marketplace_id`

func scanOrderDetails(row scanner) (OrderDetails, error) {
	var d OrderDetails
	var status, mtype string
	err := row.Scan(
		&d.ID, &d.OrderID, &d.CustomerID, &d.MarketplaceID, &status, &d.TotalAmount, &d.Currency, &d.OrderDate, &d.CreatedAt,
		&d.Customer.ID, &d.Customer.Name, &d.Customer.Email, &d.Customer.Phone, &d.Customer.Address, &d.Customer.CreatedAt,
		&d.Marketplace.ID, &d.Marketplace.Name, &mtype, &d.Marketplace.IsConnected, &d.Marketplace.APIKey, &d.Marketplace.APISecret,
		&d.Marketplace.StoreURL, &d.Marketplace.LastSync, &d.Marketplace.StockTracking, &d.Marketplace.AutoUpdateStock, &d.Marketplace.CreatedAt,
	)
	if err != nil {
		return OrderDetails{}, mapPgError(err)
	}
	d.Status = Status(status)
	d.Marketplace.Type = MarketplaceType(mtype)
	d.Items = []OrderItemDetails{}
	return d, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (OrderDetails, error) {
	d, err := scanOrderDetails(r.DB.QueryRow(ctx, orderDetailsQuery+` WHERE o.id = $1`, id))
	if err != nil {
		return OrderDetails{}, err
	}
	all := []OrderDetails{d}
	if err := r.attachItems(ctx, all); err != nil {
		return OrderDetails{}, err
	}
	return all[0], nil
}

func (r *Repo) ListOrders(ctx context.Context, f OrderFilter) ([]OrderDetails, error) {
	q := orderDetailsQuery + ` WHERE ($1 = 0 OR o.customer_id = $1) AND ($2 = 0 OR o.marketplace_id = $2)
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.DB.Query(ctx, q, f.CustomerID, f.MarketplaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderDetails{}
	for rows.Next() {
		d, err := scanOrderDetails(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items (and their products, when still linked) of all
// given orders in one query.
func (r *Repo) attachItems(ctx context.Context, orders []OrderDetails) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.name, i.sku, i.quantity, i.price,
		       p.name, p.description, p.sku, p.price, p.stock, p.image_url, p.status, p.created_at
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       OrderItemDetails
			pName    *string
			pDesc    *string
			pSKU     *string
			pPrice   decimal.NullDecimal
			pStock   *int
			pImage   *string
			pStatus  *string
			pCreated *time.Time
		)
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.SKU, &it.Quantity, &it.Price,
			&pName, &pDesc, &pSKU, &pPrice, &pStock, &pImage, &pStatus, &pCreated,
		); err != nil {
			return err
		}
		if it.ProductID != nil && pName != nil {
			it.Product = &Product{
				ID:          *it.ProductID,
				Name:        *pName,
				Description: pDesc,
				SKU:         deref(pSKU),
				Price:       NewMoney(pPrice.Decimal),
				Stock:       derefInt(pStock),
				ImageURL:    pImage,
				Status:      ProductStatus(deref(pStatus)),
				CreatedAt:   derefTime(pCreated),
			}
		}
		i, ok := index[it.OrderID]
		if !ok {
			continue
		}
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}

func (r *Repo) AllOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteOrder removes the order and, by cascade, its items. Stock is left
// alone.
func (r *Repo) DeleteOrder(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.DB, `DELETE FROM orders WHERE id = $1`, id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
