package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shoppos/internal/auth"
	"shoppos/internal/bulkimport"
	"shoppos/internal/catalog"
	"shoppos/internal/checkout"
	"shoppos/internal/excel"
	"shoppos/internal/ocr"
	"shoppos/internal/printing"
	"shoppos/internal/report"
	"shoppos/internal/repository"
	"shoppos/internal/service"
)

const maxUploadBytes = 32 << 20

type Handler struct {
	svc *service.Service
	log *zap.Logger
}

func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// fail maps domain errors to statuses. Anything unrecognised is logged and
// reported as a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var partial *checkout.PartialCommitError
	switch {
	case errors.As(err, &partial):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   partial.Error(),
			"invoice": partial.Invoice,
			"applied": partial.Applied,
			"failed":  partial.Failed,
		})
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, catalog.ErrBarcodeNotFound),
		errors.Is(err, checkout.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, report.ErrInvalidWindow),
		errors.Is(err, checkout.ErrNegativePrice),
		errors.Is(err, checkout.ErrInvalidProduct),
		errors.Is(err, ocr.ErrEmptyImage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrOutOfStock),
		errors.Is(err, checkout.ErrStockCeiling),
		errors.Is(err, checkout.ErrQuantityFloor),
		errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bulkimport.ErrNothingExtracted),
		errors.Is(err, excel.ErrNothingToExport),
		errors.Is(err, printing.ErrNoLabels):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrOCRUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

// parseOptionalTime accepts RFC 3339 or a bare date, read in loc.
func parseOptionalTime(raw string, loc *time.Location) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if parsed, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return &parsed, nil
	}
	return nil, fmt.Errorf("invalid time: %s", raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
