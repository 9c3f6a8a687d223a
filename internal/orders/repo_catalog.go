package orders

import (
	"context"
	"time"
)

const customerColumns = `id, name, email, phone, address, created_at`

func scanCustomer(row scanner) (Customer, error) {
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
		return Customer{}, mapPgError(err)
	}
	return c, nil
}

func (r *Repo) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

func (r *Repo) CustomerByEmail(ctx context.Context, email string) (Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1) LIMIT 1`, email))
}

func (r *Repo) CreateCustomer(ctx context.Context, c *Customer) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.Name, c.Email, c.Phone, c.Address, c.CreatedAt,
	).Scan(&c.ID)
	return mapPgError(err)
}

func (r *Repo) UpdateCustomer(ctx context.Context, c *Customer) error {
	updated, err := scanCustomer(r.DB.QueryRow(ctx, `
		UPDATE customers SET name = $2, email = $3, phone = $4, address = $5
		WHERE id = $1
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone, c.Address))
	if err != nil {
		return err
	}
	*c = updated
	return nil
}

func (r *Repo) DeleteCustomer(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.DB, `DELETE FROM customers WHERE id = $1`, id)
}

const productColumns = `id, name, description, sku, price, stock, image_url, status, created_at`

func scanProduct(row scanner) (Product, error) {
	var p Product
	var status string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.Stock, &p.ImageURL, &status, &p.CreatedAt); err != nil {
		return Product{}, mapPgError(err)
	}
	p.Status = ProductStatus(status)
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *Repo) ProductBySKU(ctx context.Context, sku string) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products (name, description, sku, price, stock, image_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.Name, p.Description, p.SKU, p.Price, p.Stock, p.ImageURL, string(p.Status), p.CreatedAt,
	).Scan(&p.ID)
	return mapPgError(err)
}

func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	updated, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET name = $2, description = $3, sku = $4, price = $5, stock = $6, image_url = $7, status = $8
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.Stock, p.ImageURL, string(p.Status)))
	if err != nil {
		return err
	}
	*p = updated
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.DB, `DELETE FROM products WHERE id = $1`, id)
}

func (r *Repo) SetStockBySKU(ctx context.Context, sku string, stock int) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`UPDATE products SET stock = $2 WHERE sku = $1 RETURNING `+productColumns, sku, stock))
}

const marketplaceColumns = `id, name, type, is_connected, api_key, api_secret, store_url, last_sync, stock_tracking, auto_update_stock, created_at`

func scanMarketplace(row scanner) (Marketplace, error) {
	var m Marketplace
	var mtype string
	err := row.Scan(&m.ID, &m.Name, &mtype, &m.IsConnected, &m.APIKey, &m.APISecret,
		&m.StoreURL, &m.LastSync, &m.StockTracking, &m.AutoUpdateStock, &m.CreatedAt)
	if err != nil {
		return Marketplace{}, mapPgError(err)
	}
	m.Type = MarketplaceType(mtype)
	return m, nil
}

func (r *Repo) listMarketplaces(ctx context.Context, where string) ([]Marketplace, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+marketplaceColumns+` FROM marketplaces `+where+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Marketplace{}
	for rows.Next() {
		m, err := scanMarketplace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) ListMarketplaces(ctx context.Context) ([]Marketplace, error) {
	return r.listMarketplaces(ctx, "")
}

func (r *Repo) ConnectedMarketplaces(ctx context.Context) ([]Marketplace, error) {
	return r.listMarketplaces(ctx, "WHERE is_connected")
}

func (r *Repo) GetMarketplace(ctx context.Context, id int64) (Marketplace, error) {
	return scanMarketplace(r.DB.QueryRow(ctx, `SELECT `+marketplaceColumns+` FROM marketplaces WHERE id = $1`, id))
}

func (r *Repo) CreateMarketplace(ctx context.Context, m *Marketplace) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO marketplaces (name, type, is_connected, api_key, api_secret, store_url, last_sync, stock_tracking, auto_update_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		m.Name, string(m.Type), m.IsConnected, m.APIKey, m.APISecret, m.StoreURL, m.LastSync, m.StockTracking, m.AutoUpdateStock, m.CreatedAt,
	).Scan(&m.ID)
	return mapPgError(err)
}

func (r *Repo) UpdateMarketplace(ctx context.Context, m *Marketplace) error {
	updated, err := scanMarketplace(r.DB.QueryRow(ctx, `
		UPDATE marketplaces
		SET name = $2, type = $3, is_connected = $4, api_key = $5, api_secret = $6, store_url = $7,
		    stock_tracking = $8, auto_update_stock = $9
		WHERE id = $1
		RETURNING `+marketplaceColumns,
		m.ID, m.Name, string(m.Type), m.IsConnected, m.APIKey, m.APISecret, m.StoreURL, m.StockTracking, m.AutoUpdateStock))
	if err != nil {
		return err
	}
	*m = updated
	return nil
}

func (r *Repo) DeleteMarketplace(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.DB, `DELETE FROM marketplaces WHERE id = $1`, id)
}

func (r *Repo) TouchMarketplaceSync(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.Exec(ctx, `UPDATE marketplaces SET last_sync = $2 WHERE id = $1`, id, at)
	return mapPgError(err)
}

// deleteByID runs a single-row delete. Rows still referenced by orders are
// reported as ErrInUse through the foreign key.
func deleteByID(ctx context.Context, q queryer, sql string, id int64) error {
	ct, err := q.Exec(ctx, sql, id)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
