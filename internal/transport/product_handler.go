package transport

import (
	"errors"
	"net/http"
	"strings"

	"product-api/internal/middleware"
	"product-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers product routes behind the given middlewares
func (h *ProductHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/products", h.Create)
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	record, err := middleware.DecodeJSONObject(w, r)
	if err != nil {
		h.logger.Debug("Rejected product body", zap.Error(err))
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid request body", map[string]interface{}{
			"reason": strings.TrimPrefix(err.Error(), middleware.ErrInvalidBody.Error()+": "),
		})
		return
	}

	product, err := h.productService.Create(r.Context(), record)
	if err != nil {
		var verrs service.ValidationErrors
		if errors.As(err, &verrs) {
			h.logger.Debug("Product validation failed", zap.Any("errors", verrs))
			middleware.RespondWithJSON(w, http.StatusBadRequest, verrs)
			return
		}

		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("Product created", zap.String("id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}
