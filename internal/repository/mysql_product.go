package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
)

// MySQLProductRepo stores products in the 'products' table with images in
// 'product_images' and reservations in 'product_buyers'.  Child rows carry
// a position column so slice order survives a round trip.
type MySQLProductRepo struct{ DB *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{DB: db} }

const productColumns = `id, seller_id, title, description, price, category, stock, hidden, version, created_at, updated_at`

func parseID(id string) (uint64, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	return n, err == nil && n > 0
}

// InsertProduct stores p and its children in one transaction.
func (r *MySQLProductRepo) InsertProduct(ctx context.Context, p *model.Product) error {
	sellerID, ok := parseID(p.SellerID)
	if !ok {
		return ErrUserNotFound
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO products (seller_id, title, description, price, category, stock, hidden, version, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,1,?,?)`,
		sellerID, p.Title, p.Description, p.Price, p.Category, p.Stock, p.Hidden, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertChildrenTx(ctx, tx, uint64(id), p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	p.ID = strconv.FormatInt(id, 10)
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// ProductByID fetches a product with its images and reservations.
func (r *MySQLProductRepo) ProductByID(ctx context.Context, id string) (*model.Product, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, ErrProductNotFound
	}
	products, err := r.query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", n)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

// ListProducts returns matching products ordered by id.  Text matching
// uses BINARY comparison so it stays exact under case-insensitive
// collations.
func (r *MySQLProductRepo) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	where := []string{}
	args := []any{}
	if q.SellerID != "" {
		n, ok := parseID(q.SellerID)
		if !ok {
			return []model.Product{}, nil
		}
		where = append(where, "seller_id = ?")
		args = append(args, n)
	}
	if q.BuyerID != "" {
		n, ok := parseID(q.BuyerID)
		if !ok {
			return []model.Product{}, nil
		}
		where = append(where, "id IN (SELECT product_id FROM product_buyers WHERE buyer_id = ?)")
		args = append(args, n)
	}
	if q.Text != "" {
		where = append(where, "(BINARY title = ? OR BINARY description = ? OR BINARY category = ?)")
		args = append(args, q.Text, q.Text, q.Text)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE "+cond+" ORDER BY id", args...)
}

// SaveProduct updates the product row guarded by version and rewrites its
// children, all inside one transaction.
func (r *MySQLProductRepo) SaveProduct(ctx context.Context, p *model.Product, expectedVersion int64) error {
	id, ok := parseID(p.ID)
	if !ok {
		return ErrProductNotFound
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET title=?, description=?, price=?, category=?, stock=?, hidden=?, updated_at=?, version=version+1
		 WHERE id=? AND version=?`,
		p.Title, p.Description, p.Price, p.Category, p.Stock, p.Hidden, now, id, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id=?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		return ErrStale
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM product_images WHERE product_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM product_buyers WHERE product_id=?", id); err != nil {
		return err
	}
	if err := insertChildrenTx(ctx, tx, id, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	p.Version = expectedVersion + 1
	p.UpdatedAt = now
	return nil
}

// DeleteProduct removes a product; children go with ON DELETE CASCADE.
func (r *MySQLProductRepo) DeleteProduct(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return ErrProductNotFound
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func insertChildrenTx(ctx context.Context, tx *sql.Tx, productID uint64, p *model.Product) error {
	if len(p.Images) > 0 {
		query := `INSERT INTO product_images (product_id, position, url, alt_text, is_primary) VALUES `
		args := make([]interface{}, 0, len(p.Images)*5)
		for i, img := range p.Images {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, productID, i, img.URL, img.AltText, img.IsPrimary)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(p.Buyers) > 0 {
		query := `INSERT INTO product_buyers (product_id, position, buyer_id, quantity, purchase_date, purchased) VALUES `
		args := make([]interface{}, 0, len(p.Buyers)*6)
		for i, b := range p.Buyers {
			row, err := buyerRowArgs(productID, i, b)
			if err != nil {
				return err
			}
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, row...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// buyerRowArgs maps one reservation to the product_buyers column values,
// in insert order.
func buyerRowArgs(productID uint64, position int, b model.Reservation) ([]interface{}, error) {
	buyerID, ok := parseID(b.BuyerID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return []interface{}{productID, position, buyerID, b.Quantity, b.PurchaseDate.UTC(), b.Purchased}, nil
}

// query runs a products SELECT and attaches children with one query per
// child table.
func (r *MySQLProductRepo) query(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []model.Product{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			p            model.Product
			id, sellerID uint64
		)
		if err := rows.Scan(&id, &sellerID, &p.Title, &p.Description, &p.Price, &p.Category,
			&p.Stock, &p.Hidden, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.ID = strconv.FormatUint(id, 10)
		p.SellerID = strconv.FormatUint(sellerID, 10)
		index[id] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(index)), ",")
	ids := make([]any, 0, len(index))
	for _, p := range products {
		n, _ := strconv.ParseUint(p.ID, 10, 64)
		ids = append(ids, n)
	}

	imgRows, err := r.DB.QueryContext(ctx,
		"SELECT product_id, url, alt_text, is_primary FROM product_images WHERE product_id IN ("+placeholders+") ORDER BY product_id, position",
		ids...)
	if err != nil {
		return nil, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var (
			pid uint64
			img model.Image
		)
		if err := imgRows.Scan(&pid, &img.URL, &img.AltText, &img.IsPrimary); err != nil {
			return nil, err
		}
		if i, ok := index[pid]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, err
	}

	buyerRows, err := r.DB.QueryContext(ctx,
		"SELECT product_id, buyer_id, quantity, purchase_date, purchased FROM product_buyers WHERE product_id IN ("+placeholders+") ORDER BY product_id, position",
		ids...)
	if err != nil {
		return nil, err
	}
	defer buyerRows.Close()
	for buyerRows.Next() {
		var (
			pid, buyerID uint64
			res          model.Reservation
		)
		if err := buyerRows.Scan(&pid, &buyerID, &res.Quantity, &res.PurchaseDate, &res.Purchased); err != nil {
			return nil, err
		}
		res.BuyerID = strconv.FormatUint(buyerID, 10)
		if i, ok := index[pid]; ok {
			products[i].Buyers = append(products[i].Buyers, res)
		}
	}
	if err := buyerRows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// MySQLStore combines the user and product repos over one *sql.DB.
type MySQLStore struct {
	*MySQLUserRepo
	*MySQLProductRepo
}

// NewMySQLStore returns a Store backed by db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{MySQLUserRepo: NewMySQLUserRepo(db), MySQLProductRepo: NewMySQLProductRepo(db)}
}
