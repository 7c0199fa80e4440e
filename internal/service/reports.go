package service

import (
	"context"
	"strings"
	"time"

	"shoppos/internal/domain"
	"shoppos/internal/excel"
	"shoppos/internal/printing"
	"shoppos/internal/report"
	"shoppos/internal/repository"
)

func (s *Service) ListInvoices(ctx context.Context, from, to *time.Time, limit int) ([]domain.Invoice, error) {
	return s.store.ListInvoices(ctx, repository.InvoiceListFilter{From: from, To: to, Limit: limit})
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *Service) Receipt(ctx context.Context, id string) (string, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return "", err
	}
	return printing.RenderReceipt(inv, printing.ReceiptOptions{
		ShopName: s.shop.Name,
		Tagline:  s.shop.Tagline,
		Contact:  s.shop.Contact,
		Currency: s.shop.Currency,
		Width:    s.shop.ReceiptWidth,
		Location: s.shop.Location,
	}), nil
}

func (s *Service) windowInvoices(ctx context.Context, w report.Window) ([]domain.Invoice, error) {
	return s.store.ListInvoices(ctx, repository.InvoiceListFilter{From: &w.Start, To: &w.End, All: true})
}

// SalesReport aggregates the invoices between two YYYY-MM-DD dates inclusive.
func (s *Service) SalesReport(ctx context.Context, start, end string) (domain.SalesReport, error) {
	w, err := report.NewWindow(start, end, s.shop.Location)
	if err != nil {
		return domain.SalesReport{}, err
	}
	invoices, err := s.windowInvoices(ctx, w)
	if err != nil {
		return domain.SalesReport{}, err
	}
	products, err := s.store.ListProducts(ctx, repository.ProductListFilter{})
	if err != nil {
		return domain.SalesReport{}, err
	}
	return report.Summarize(w, invoices, products), nil
}

// ExportSales returns the xlsx file name and content for the window.
func (s *Service) ExportSales(ctx context.Context, start, end string) (string, []byte, error) {
	w, err := report.NewWindow(start, end, s.shop.Location)
	if err != nil {
		return "", nil, err
	}
	invoices, err := s.windowInvoices(ctx, w)
	if err != nil {
		return "", nil, err
	}
	data, err := excel.BuildSalesWorkbook(invoices, s.shop.Location)
	if err != nil {
		return "", nil, err
	}
	return excel.ExportFileName(w.StartLabel(), w.EndLabel()), data, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	today := report.Day(time.Now(), s.shop.Location)
	todays, err := s.windowInvoices(ctx, today)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	recent, err := s.store.ListInvoices(ctx, repository.InvoiceListFilter{Limit: report.RecentCount})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	products, err := s.store.ListProducts(ctx, repository.ProductListFilter{})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return report.Dashboard(todays, recent, products, s.shop.LowStockThreshold), nil
}

// Labels renders a printable label sheet for the products matching search.
func (s *Service) Labels(ctx context.Context, search, symbology string) ([]byte, error) {
	products, err := s.store.ListProducts(ctx, repository.ProductListFilter{
		Search: strings.TrimSpace(search),
		Order:  repository.OrderName,
	})
	if err != nil {
		return nil, err
	}
	return printing.RenderLabelSheet(products, printing.LabelOptions{
		ShopName:  s.shop.Name,
		Currency:  s.shop.Currency,
		Symbology: printing.ParseSymbology(symbology),
		FontPath:  s.shop.LabelFontPath,
	})
}

// Location is the shop's timezone used for calendar dates.
func (s *Service) Location() *time.Location {
	if s.shop.Location == nil {
		return time.Local
	}
	return s.shop.Location
}
