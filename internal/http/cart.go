package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"shoppos/internal/checkout"
	"shoppos/internal/domain"
)

// Carts are keyed by the signed-in user, one open cart per cashier.

type cartView struct {
	Lines     []cartLineView  `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type cartLineView struct {
	checkout.Line
	LineTotal decimal.Decimal `json:"line_total"`
}

func toCartView(v checkout.View) cartView {
	out := cartView{Lines: make([]cartLineView, 0, len(v.Lines)), Total: v.Total, ItemCount: v.ItemCount}
	for _, line := range v.Lines {
		out.Lines = append(out.Lines, cartLineView{Line: line, LineTotal: line.Total()})
	}
	return out
}

// writeCart answers a cart mutation. Rejections still carry the unchanged
// cart so the terminal can redraw.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, view checkout.View, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(view))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCartView(h.svc.Cart(principal(r).Email)))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCartView(h.svc.ClearCart(principal(r).Email)))
}

type scanRequest struct {
	Code string `json:"code"`
}

type scanResponse struct {
	Product *domain.Product `json:"product,omitempty"`
	Cart    cartView        `json:"cart"`
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, product, err := h.svc.Scan(r.Context(), principal(r).Email, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{Product: &product, Cart: toCartView(view)})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.AddToCart(r.Context(), principal(r).Email, req.ProductID)
	h.writeCart(w, r, view, err)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.RemoveFromCart(principal(r).Email, chi.URLParam(r, "productID"))
	h.writeCart(w, r, view, err)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) AdjustCartItem(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.AdjustCartLine(principal(r).Email, chi.URLParam(r, "productID"), req.Delta)
	h.writeCart(w, r, view, err)
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) SetCartItemPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.SetLinePrice(principal(r).Email, chi.URLParam(r, "productID"), req.Price)
	h.writeCart(w, r, view, err)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	invoice, err := h.svc.Checkout(r.Context(), p.Email, &p.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}
