package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dwikikusuma/techstore/internal/catalog/app"
	"github.com/dwikikusuma/techstore/internal/catalog/domain"
	"github.com/dwikikusuma/techstore/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, price, description, image, stock, category, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a literal search term into an ILIKE substring pattern.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, price, description, image, stock, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		p.Name, p.Price, p.Description, p.Image, p.Stock, p.Category)

	created, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if postgres.IsNoRows(err) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		where = append(where, "name ILIKE "+arg(containsPattern(f.Query))+` ESCAPE '\'`)
	}
	if f.Category != "" {
		where = append(where, "lower(category) = lower("+arg(f.Category)+")")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *ProductRepo) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE stock <= $1 ORDER BY stock, id`, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	return collectProducts(rows)
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, price = $3, description = $4, image = $5, stock = $6, category = $7
		WHERE id = $1`,
		p.ID, p.Name, p.Price, p.Description, p.Image, p.Stock, p.Category)
	if err != nil {
		return false, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	return DecrementStock(ctx, r.pool, id, qty)
}

// DecrementStock takes qty units in one conditional write. It runs on any
// DBTX so the order transaction can use it on its own tx.
func DecrementStock(ctx context.Context, q postgres.DBTX, id int64, qty int) (bool, error) {
	ct, err := q.Exec(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`, qty, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Image, &p.Stock, &p.Category, &p.CreatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
