package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

const productColumns = `
	id,
	name,
	price::text,
	cost_price::text,
	quantity,
	barcode,
	sold,
	created_at,
	updated_at
`

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	orderBy := "created_at DESC, id ASC"
	if filter.Order == OrderName {
		orderBy = "LOWER(name) ASC, id ASC"
	}
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR barcode ILIKE '%' || $1 || '%')
		ORDER BY ` + orderBy

	rows, err := r.pool.Query(ctx, query, strings.TrimSpace(filter.Search))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Postgres) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

func (r *Postgres) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, price, cost_price, quantity, barcode)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		uuid.NewString(),
		strings.TrimSpace(input.Name),
		input.Price,
		input.CostPrice,
		input.Quantity,
		strings.TrimSpace(input.Barcode),
	)
	product, err := scanProductRow(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct overwrites the editable fields; sold is left as stored.
func (r *Postgres) UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET
			name = $2,
			price = $3,
			cost_price = $4,
			quantity = $5,
			barcode = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id,
		strings.TrimSpace(input.Name),
		input.Price,
		input.CostPrice,
		input.Quantity,
		strings.TrimSpace(input.Barcode),
	)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return product, nil
}

func (r *Postgres) DeleteProduct(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) ApplySale(ctx context.Context, id string, qty int) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, sold = sold + $2, updated_at = NOW()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("apply sale to product %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProducts writes products with their original IDs and counters. Used
// by the legacy importer.
func (r *Postgres) UpsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert products tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, p := range products {
		if _, err := tx.Exec(ctx, `
			INSERT INTO products (id, name, price, cost_price, quantity, barcode, sold, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				cost_price = EXCLUDED.cost_price,
				quantity = EXCLUDED.quantity,
				barcode = EXCLUDED.barcode,
				sold = EXCLUDED.sold,
				updated_at = EXCLUDED.updated_at
		`, p.ID, p.Name, p.Price, p.CostPrice, p.Quantity, p.Barcode, p.Sold, p.CreatedAt, p.UpdatedAt); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert products tx: %w", err)
	}
	return len(products), nil
}

func (r *Postgres) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, normalizeEmail(email)).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return user, nil
}

// CreateUser inserts the user unless the email is taken, in which case the
// stored user is returned unchanged.
func (r *Postgres) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	email := normalizeEmail(user.Email)
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, user.PasswordHash); err != nil {
		return domain.User{}, fmt.Errorf("create user %s: %w", email, err)
	}
	return r.GetUserByEmail(ctx, email)
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var (
		product   domain.Product
		price     string
		costPrice string
		barcode   sql.NullString
	)
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&price,
		&costPrice,
		&product.Quantity,
		&barcode,
		&product.Sold,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	var err error
	if product.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	if product.CostPrice, err = decimal.NewFromString(costPrice); err != nil {
		return domain.Product{}, fmt.Errorf("parse cost price %q: %w", costPrice, err)
	}
	if barcode.Valid {
		product.Barcode = barcode.String
	}
	return product, nil
}
