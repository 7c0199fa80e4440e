package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shoppos/internal/domain"
)

const (
	productsCol = "products"
	invoicesCol = "invoices"
	usersCol    = "users"
)

// Firestore keeps the document layout the shop's existing data uses:
// camelCase fields, float64 money, server timestamps.
type Firestore struct {
	fs *firestore.Client
}

func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("open firestore client: %w", err)
	}
	return client, nil
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{fs: client}
}

func (r *Firestore) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	snaps, err := r.fs.Collection(productsCol).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]domain.Product, 0, len(snaps))
	for _, snap := range snaps {
		p := productFromSnapshot(snap)
		if MatchesSearch(p, filter.Search) {
			products = append(products, p)
		}
	}
	sortProducts(products, filter.Order)
	return products, nil
}

func (r *Firestore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	snap, err := r.fs.Collection(productsCol).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return productFromSnapshot(snap), nil
}

func (r *Firestore) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	data := productFields(input)
	data["sold"] = 0
	data["createdAt"] = firestore.ServerTimestamp
	data["updatedAt"] = firestore.ServerTimestamp

	ref, wr, err := r.fs.Collection(productsCol).Add(ctx, data)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return domain.Product{
		ID:        ref.ID,
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
		CostPrice: input.CostPrice,
		Quantity:  input.Quantity,
		Barcode:   strings.TrimSpace(input.Barcode),
		CreatedAt: wr.UpdateTime,
		UpdatedAt: wr.UpdateTime,
	}, nil
}

func (r *Firestore) UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error) {
	if err := input.Validate(); err != nil {
		return domain.Product{}, err
	}
	input = input.Normalized()
	fields := productFields(input)
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	ref := r.fs.Collection(productsCol).Doc(id)
	if _, err := ref.Update(ctx, updates); err != nil {
		if isFirestoreNotFound(err) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return r.GetProduct(ctx, id)
}

func (r *Firestore) DeleteProduct(ctx context.Context, id string) error {
	if _, err := r.fs.Collection(productsCol).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if isFirestoreNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

func (r *Firestore) ApplySale(ctx context.Context, id string, qty int) error {
	_, err := r.fs.Collection(productsCol).Doc(id).Update(ctx, []firestore.Update{
		{Path: "quantity", Value: firestore.Increment(-qty)},
		{Path: "sold", Value: firestore.Increment(qty)},
	})
	if err != nil {
		if isFirestoreNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("apply sale to product %s: %w", id, err)
	}
	return nil
}

func (r *Firestore) CreateInvoice(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	data := invoiceFields(invoice)
	data["createdAt"] = firestore.ServerTimestamp

	ref, wr, err := r.fs.Collection(invoicesCol).Add(ctx, data)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	invoice.ID = ref.ID
	invoice.CreatedAt = wr.UpdateTime
	return invoice, nil
}

func (r *Firestore) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	snap, err := r.fs.Collection(invoicesCol).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return domain.Invoice{}, ErrNotFound
		}
		return domain.Invoice{}, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return invoiceFromSnapshot(snap), nil
}

func (r *Firestore) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]domain.Invoice, error) {
	q := r.fs.Collection(invoicesCol).Query
	if filter.From != nil {
		q = q.Where("createdAt", ">=", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("createdAt", "<=", *filter.To)
	}
	q = q.OrderBy("createdAt", firestore.Desc)
	if !filter.All {
		q = q.Limit(normalizeLimit(filter.Limit))
	}

	it := q.Documents(ctx)
	defer it.Stop()

	invoices := make([]domain.Invoice, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list invoices: %w", err)
		}
		invoices = append(invoices, invoiceFromSnapshot(snap))
	}
	return invoices, nil
}

// Users are keyed by their normalised email so uniqueness comes from the
// document ID.
func (r *Firestore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	snap, err := r.fs.Collection(usersCol).Doc(email).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return userFromSnapshot(snap), nil
}

func (r *Firestore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	email := normalizeEmail(user.Email)
	_, err := r.fs.Collection(usersCol).Doc(email).Create(ctx, map[string]any{
		"email":        email,
		"passwordHash": user.PasswordHash,
		"createdAt":    firestore.ServerTimestamp,
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return domain.User{}, fmt.Errorf("create user %s: %w", email, err)
	}
	return r.GetUserByEmail(ctx, email)
}

func isFirestoreNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
