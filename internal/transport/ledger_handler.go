package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PurchaseRequest represents the purchase recording payload
type PurchaseRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  *float64 `json:"quantity" validate:"required,gt=0"`
}

// SaleItemRequest is one requested line of a bulk sale
type SaleItemRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  *float64 `json:"quantity" validate:"required,gt=0"`
}

// SaleRequest accepts either a single line (product_id + quantity) or a
// bulk batch (items). The single form is the one-line degenerate case.
type SaleRequest struct {
	ProductID *int64            `json:"product_id"`
	Quantity  *float64          `json:"quantity"`
	Items     []SaleItemRequest `json:"items" validate:"omitempty,dive"`
}

// PurchaseResponse echoes a recorded purchase
type PurchaseResponse struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// SingleSaleResponse echoes a recorded one-line sale
type SingleSaleResponse struct {
	ID             int64     `json:"id"`
	SaleID         int64     `json:"sale_id"`
	ProductID      int64     `json:"product_id"`
	Quantity       float64   `json:"quantity"`
	AvailableStock float64   `json:"available_stock"`
	CreatedAt      time.Time `json:"created_at"`
}

// LedgerHandler handles HTTP requests for purchases, sales, stock levels
// and the dashboard.
type LedgerHandler struct {
	stockService  service.StockService
	reportService service.ReportService
	logger        *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(stockService service.StockService, reportService service.ReportService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		stockService:  stockService,
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers the ledger routes. The stock summary is the
// one public read; everything else requires a bearer token.
func (h *LedgerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/stock", h.GetStock)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/purchases", h.ListPurchases)
		r.Post("/api/purchases", h.CreatePurchase)
		r.Get("/api/sales", h.ListSales)
		r.Post("/api/sales", h.CreateSale)
		r.Get("/api/dashboard", h.GetDashboard)
	})
}

// decodeError turns JSON type mismatches into the field-specific messages
// callers are expected to act on.
func decodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "product_id", "items.product_id":
			return "product_id must be an integer"
		case "quantity", "items.quantity":
			return "quantity must be a number"
		}
	}
	return "invalid request body"
}

// CreatePurchase records stock received. Purchases are never rejected
// for stock reasons; only malformed input fails.
func (h *LedgerHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Purchase validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, decodeError(err))
		return
	}

	purchase, err := h.stockService.RecordPurchase(r.Context(), req.ProductID, *req.Quantity)
	if err != nil {
		h.respondLedgerError(w, err, "failed to record purchase")
		return
	}

	h.logger.Info("Purchase recorded",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("product_id", purchase.ProductID),
		zap.Float64("quantity", purchase.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, PurchaseResponse{
		ID:        purchase.ID,
		ProductID: purchase.ProductID,
		Quantity:  purchase.Quantity,
		CreatedAt: purchase.CreatedAt,
	})
}

// CreateSale admits and records a sale. Both request forms run through
// the same validation pass; the whole batch succeeds or nothing is
// persisted.
func (h *LedgerHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Sale decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, decodeError(err))
		return
	}

	// Bulk items are validated here; the single form is checked below
	// because its fields are only required when no items are given.
	if err := middleware.ValidateRequest(&req); err != nil {
		h.logger.Debug("Sale validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	single := len(req.Items) == 0
	var lines []domain.SaleLineRequest
	if single {
		if req.ProductID == nil || req.Quantity == nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "ensure all fields are set: product_id, quantity")
			return
		}
		lines = []domain.SaleLineRequest{{ProductID: *req.ProductID, Quantity: *req.Quantity}}
	} else {
		for _, item := range req.Items {
			if item.Quantity == nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "ensure all fields are set: product_id, quantity")
				return
			}
			lines = append(lines, domain.SaleLineRequest{ProductID: item.ProductID, Quantity: *item.Quantity})
		}
	}

	receipt, err := h.stockService.RecordSale(r.Context(), lines)
	if err != nil {
		h.respondLedgerError(w, err, "failed to record sale")
		return
	}

	h.logger.Info("Sale recorded",
		zap.Int64("sale_id", receipt.SaleID),
		zap.Int("lines", len(receipt.Lines)),
	)

	if single {
		line := receipt.Lines[0]
		middleware.RespondWithJSON(w, http.StatusCreated, SingleSaleResponse{
			ID:             receipt.SaleID,
			SaleID:         receipt.SaleID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			AvailableStock: line.AvailableStock,
			CreatedAt:      receipt.CreatedAt,
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, receipt)
}

// respondLedgerError maps engine rejections to structured 400s and store
// faults to opaque 500s.
func (h *LedgerHandler) respondLedgerError(w http.ResponseWriter, err error, fallback string) {
	var outOfStock *domain.OutOfStockError
	if errors.As(err, &outOfStock) {
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, outOfStock.Error(), map[string]interface{}{
			"product_id":      outOfStock.ProductID,
			"available_stock": 0,
		})
		return
	}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, insufficient.Error(), map[string]interface{}{
			"product_id":      insufficient.ProductID,
			"requested":       insufficient.Requested,
			"available_stock": insufficient.Available,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "product not found")
	case errors.Is(err, repository.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be greater than zero")
	case errors.Is(err, service.ErrEmptySale):
		middleware.RespondWithError(w, http.StatusBadRequest, "sale must contain at least one item")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// GetStock reports availability for every product, including products
// with no recorded activity.
func (h *LedgerHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.stockService.StockSummary(r.Context())
	if err != nil {
		h.logger.Error("Failed to load stock summary", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load stock summary")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, levels)
}

// ListPurchases enumerates historical purchases with product data
func (h *LedgerHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.stockService.ListPurchases(r.Context())
	if err != nil {
		h.logger.Error("Failed to list purchases", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list purchases")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, purchases)
}

// ListSales enumerates historical sales with their lines
func (h *LedgerHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.stockService.ListSales(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

// GetDashboard serves the chart payload for the dashboard
func (h *LedgerHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reportService.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}
