package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

const invoiceSelect = `
	SELECT
		i.id,
		i.invoice_number,
		i.total::text,
		i.item_count,
		i.cashier,
		i.created_at,
		COALESCE(
			(
				SELECT JSON_AGG(
					JSON_BUILD_OBJECT(
						'product_id', it.product_id,
						'name', it.name,
						'price', it.price::text,
						'cost_price', it.cost_price::text,
						'quantity', it.quantity,
						'line_total', it.line_total::text
					)
					ORDER BY it.position
				)
				FROM invoice_items it
				WHERE it.invoice_id = i.id
			),
			'[]'::json
		)
	FROM invoices i
`

// CreateInvoice stores the header and its item snapshots in one transaction.
func (r *Postgres) CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("begin invoice tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	invoice.ID = uuid.NewString()
	if err := insertInvoiceTx(ctx, tx, &invoice, nil); err != nil {
		return domain.Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Invoice{}, fmt.Errorf("commit invoice tx: %w", err)
	}
	return invoice, nil
}

// UpsertInvoices writes invoices keeping their original IDs and timestamps.
// Invoices already present are skipped.
func (r *Postgres) UpsertInvoices(ctx context.Context, invoices []domain.Invoice) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert invoices tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for i := range invoices {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM invoices WHERE id = $1)", invoices[i].ID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check invoice %s: %w", invoices[i].ID, err)
		}
		if exists {
			continue
		}
		createdAt := invoices[i].CreatedAt
		if err := insertInvoiceTx(ctx, tx, &invoices[i], &createdAt); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert invoices tx: %w", err)
	}
	return inserted, nil
}

func insertInvoiceTx(ctx context.Context, tx pgx.Tx, invoice *domain.Invoice, createdAt *time.Time) error {
	if err := tx.QueryRow(ctx, `
		INSERT INTO invoices (id, invoice_number, total, item_count, cashier, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING created_at
	`, invoice.ID, invoice.InvoiceNumber, invoice.Total, invoice.ItemCount, invoice.Cashier, createdAt).Scan(&invoice.CreatedAt); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for position, item := range invoice.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (
				invoice_id,
				position,
				product_id,
				name,
				price,
				cost_price,
				quantity,
				line_total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, invoice.ID, position, item.ProductID, item.Name, item.Price, item.CostPrice, item.Quantity, item.LineTotal); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *Postgres) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	row := r.pool.QueryRow(ctx, invoiceSelect+" WHERE i.id = $1", id)
	invoice, err := scanInvoiceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invoice{}, ErrNotFound
		}
		return domain.Invoice{}, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return invoice, nil
}

func (r *Postgres) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]domain.Invoice, error) {
	query := invoiceSelect + " WHERE TRUE"
	args := []any{}
	idx := 1
	if filter.From != nil {
		query += fmt.Sprintf(" AND i.created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND i.created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	query += " ORDER BY i.created_at DESC"
	if !filter.All {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, normalizeLimit(filter.Limit))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return result, nil
}

type invoiceItemRow struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	CostPrice string `json:"cost_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

func scanInvoiceRow(row pgx.Row) (domain.Invoice, error) {
	var (
		inv      domain.Invoice
		total    string
		cashier  sql.NullString
		rawItems []byte
	)
	if err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&total,
		&inv.ItemCount,
		&cashier,
		&inv.CreatedAt,
		&rawItems,
	); err != nil {
		return domain.Invoice{}, err
	}
	var err error
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Invoice{}, fmt.Errorf("parse invoice total %q: %w", total, err)
	}
	if cashier.Valid {
		value := cashier.String
		inv.Cashier = &value
	}

	var items []invoiceItemRow
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return domain.Invoice{}, fmt.Errorf("decode invoice items: %w", err)
	}
	inv.Items = make([]domain.InvoiceItem, 0, len(items))
	for _, it := range items {
		item := domain.InvoiceItem{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
		if item.Price, err = decimal.NewFromString(it.Price); err != nil {
			return domain.Invoice{}, fmt.Errorf("parse item price %q: %w", it.Price, err)
		}
		if item.CostPrice, err = decimal.NewFromString(it.CostPrice); err != nil {
			return domain.Invoice{}, fmt.Errorf("parse item cost price %q: %w", it.CostPrice, err)
		}
		if item.LineTotal, err = decimal.NewFromString(it.LineTotal); err != nil {
			return domain.Invoice{}, fmt.Errorf("parse item line total %q: %w", it.LineTotal, err)
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, nil
}
