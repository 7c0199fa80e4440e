package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	loc := h.svc.Location()
	from, err := parseOptionalTime(query.Get("from"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseOptionalTime(query.Get("to"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListInvoices(r.Context(), from, to, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.svc.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) InvoiceReceipt(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rep, err := h.svc.SalesReport(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name, data, err := h.svc.ExportSales(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeAttachment(w, xlsxContentType, name, data)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Labels(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pdf, err := h.svc.Labels(r.Context(), query.Get("search"), query.Get("symbology"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeAttachment(w, "application/pdf", "labels.pdf", pdf)
}

// writeAttachment sends a download. The RFC 5987 form carries non-ASCII
// file names.
func writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
