package product

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trendora/storefront-api/internal/httputil"
	"github.com/trendora/storefront-api/internal/logging"
)

// Catalog is the repository surface the handler needs
type Catalog interface {
	List(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListBestsellers(ctx context.Context) ([]*Product, error)
}

// Handler contains HTTP handlers for the product endpoints
type Handler struct {
	catalog Catalog
	logger  *logging.Logger
}

func NewHandler(catalog Catalog, logger *logging.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// ListResponse wraps a product list
type ListResponse struct {
	Products []*Product `json:"products"`
}

// ItemResponse wraps a single product
type ItemResponse struct {
	Product *Product `json:"product"`
}

// List returns the full catalog
// @Summary      List products
// @Tags         product
// @Produce      json
// @Success      200 {object} ListResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/product/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	products, err := h.catalog.List(r.Context())
	if err != nil {
		logger.Error("failed to list products", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list products", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{Products: products}, http.StatusOK)
}

// Get returns a single product by ID
// @Summary      Get product
// @Tags         product
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} ItemResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/product/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondError(w, "invalid product id", http.StatusNotFound)
		return
	}

	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondError(w, "product not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to get product", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get product", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ItemResponse{Product: p}, http.StatusOK)
}

// Bestsellers returns the bestseller subset
// @Summary      List bestsellers
// @Tags         product
// @Produce      json
// @Success      200 {object} ListResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/product/bestsellers [get]
func (h *Handler) Bestsellers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	products, err := h.catalog.ListBestsellers(r.Context())
	if err != nil {
		logger.Error("failed to list bestsellers", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list bestsellers", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{Products: products}, http.StatusOK)
}
