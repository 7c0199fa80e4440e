// Command import_legacy copies the catalog and invoice history from the
// hosted Firestore database into PostgreSQL, keeping document IDs, counters
// and timestamps. Re-running it updates products and skips invoices that
// were already copied.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"shoppos/internal/config"
	"shoppos/internal/db"
	"shoppos/internal/domain"
	"shoppos/internal/logger"
	"shoppos/internal/repository"
)

type options struct {
	projectID    string
	credentials  string
	databaseURL  string
	batchSize    int
	productsOnly bool
	dryRun       bool
	pool         db.PoolOptions
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	opts := parseFlags(cfg.Store)

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(context.Background(), opts, zlog); err != nil {
		zlog.Fatal("legacy import failed", zap.Error(err))
	}
}

func parseFlags(store config.StoreConfig) options {
	opts := options{pool: db.PoolOptions{
		MaxConns: int32(store.MaxConns),
		MinConns: int32(store.MinConns),
		LogLevel: store.QueryLogLevel,
	}}
	flag.StringVar(&opts.projectID, "project", store.FirestoreProjectID, "Firestore project ID")
	flag.StringVar(&opts.credentials, "credentials", store.FirestoreCredentials, "service account JSON file")
	flag.StringVar(&opts.databaseURL, "database-url", store.DatabaseURL, "PostgreSQL connection string")
	flag.IntVar(&opts.batchSize, "batch", 500, "rows per transaction")
	flag.BoolVar(&opts.productsOnly, "products-only", false, "copy the catalog but not the invoices")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "read from Firestore and report counts without writing")
	flag.Parse()

	if opts.projectID == "" {
		fmt.Fprintln(os.Stderr, "-project or FIRESTORE_PROJECT_ID is required")
		os.Exit(2)
	}
	if opts.databaseURL == "" && !opts.dryRun {
		fmt.Fprintln(os.Stderr, "-database-url or DATABASE_URL is required")
		os.Exit(2)
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 500
	}
	return opts
}

func run(ctx context.Context, opts options, zlog *zap.Logger) error {
	started := time.Now()

	client, err := repository.NewFirestoreClient(ctx, opts.projectID, opts.credentials)
	if err != nil {
		return err
	}
	defer client.Close()
	source := repository.NewFirestore(client)

	products, err := source.ListProducts(ctx, repository.ProductListFilter{})
	if err != nil {
		return err
	}
	var invoices []domain.Invoice
	if !opts.productsOnly {
		if invoices, err = source.ListInvoices(ctx, repository.InvoiceListFilter{All: true}); err != nil {
			return err
		}
	}
	zlog.Info("read firestore",
		zap.String("project", opts.projectID),
		zap.Int("products", len(products)),
		zap.Int("invoices", len(invoices)),
	)
	if opts.dryRun {
		return nil
	}

	pool, err := db.NewPool(ctx, opts.databaseURL, opts.pool, zlog)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.RunMigrations(ctx, pool, zlog); err != nil {
		return err
	}
	target := repository.NewPostgres(pool)

	upserted := 0
	for start := 0; start < len(products); start += opts.batchSize {
		n, err := target.UpsertProducts(ctx, products[start:min(start+opts.batchSize, len(products))])
		if err != nil {
			return fmt.Errorf("products batch at %d: %w", start, err)
		}
		upserted += n
	}

	inserted := 0
	for start := 0; start < len(invoices); start += opts.batchSize {
		n, err := target.UpsertInvoices(ctx, invoices[start:min(start+opts.batchSize, len(invoices))])
		if err != nil {
			return fmt.Errorf("invoices batch at %d: %w", start, err)
		}
		inserted += n
	}

	zlog.Info("legacy import finished",
		zap.Int("products_upserted", upserted),
		zap.Int("invoices_inserted", inserted),
		zap.Int("invoices_skipped", len(invoices)-inserted),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}
