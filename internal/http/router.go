package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Log            *zap.Logger
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(Timeout(opts.RequestTimeout))
	r.Use(CORS(opts.CORSOrigins))

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(handler.svc))

			r.Post("/auth/logout", handler.Logout)
			r.Get("/auth/me", handler.Me)

			r.Get("/products", handler.ListProducts)
			r.Post("/products", handler.CreateProduct)
			r.Get("/products/{id}", handler.GetProduct)
			r.Put("/products/{id}", handler.UpdateProduct)
			r.Delete("/products/{id}", handler.DeleteProduct)
			r.Post("/products/import/text", handler.ImportText)
			r.Post("/products/import/image", handler.ImportImage)
			r.Post("/products/import/spreadsheet", handler.ImportSpreadsheet)
			r.Post("/products/import/commit", handler.CommitDrafts)

			r.Get("/catalog", handler.Catalog)

			r.Get("/cart", handler.GetCart)
			r.Delete("/cart", handler.ClearCart)
			r.Post("/cart/scan", handler.Scan)
			r.Post("/cart/items", handler.AddCartItem)
			r.Delete("/cart/items/{productID}", handler.RemoveCartItem)
			r.Post("/cart/items/{productID}/adjust", handler.AdjustCartItem)
			r.Put("/cart/items/{productID}/price", handler.SetCartItemPrice)
			r.Post("/cart/checkout", handler.Checkout)

			r.Get("/invoices", handler.ListInvoices)
			r.Get("/invoices/{id}", handler.GetInvoice)
			r.Get("/invoices/{id}/receipt", handler.InvoiceReceipt)

			r.Get("/reports/sales", handler.SalesReport)
			r.Get("/reports/sales/export", handler.ExportSales)
			r.Get("/dashboard", handler.Dashboard)
			r.Get("/labels", handler.Labels)
		})
	})

	return r
}
