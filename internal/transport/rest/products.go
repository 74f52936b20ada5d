package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

// productLister is the read-only catalog access needed by ProductsHandler.
type productLister interface {
	List(ctx context.Context) ([]domain.Product, error)
}

// ProductsHandler serves the read-only product catalog endpoint.
type ProductsHandler struct {
	products productLister
	log      *slog.Logger
}

// NewProductsHandler creates a ProductsHandler.
func NewProductsHandler(products productLister, logger *slog.Logger) *ProductsHandler {
	return &ProductsHandler{products: products, log: logger.With("handler", "products")}
}

type productResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SKU      string    `json:"sku"`
	Category *string   `json:"category,omitempty"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.SKU,
		Category: p.Category,
	}
}

// List handles GET /api/v1/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := productListResponse{Products: make([]productResponse, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}
