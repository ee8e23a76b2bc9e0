package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
)

// GET    /v1/products
// GET    /v1/products/{productID}
// GET    /v1/customers/{customerID}
// GET    /v1/customers/{customerID}/cart
// DELETE /v1/customers/{customerID}/cart
// POST   /v1/customers/{customerID}/cart/items JSON {"productId", "quantity"}
// PUT    /v1/customers/{customerID}/cart/items/{productID} JSON {"quantity"}
// DELETE /v1/customers/{customerID}/cart/items/{productID}
// POST   /v1/customers/{customerID}/checkout (200 OK, 422 Unprocessable Entity)
// GET    /v1/customers/{customerID}/shipments (200 OK, 503 Service Unavailable)

type Shop interface {
	port.CatalogReader
	port.CustomerReader
	port.CartManager
	port.CheckoutRunner
	port.ShipmentsReader
}

type metricsExporter interface {
	Handler() http.Handler
	Middleware(http.Handler) http.Handler
}

type RouterOpt func(*router)

// MetricsOpt instruments every route and serves GET /metrics.
func MetricsOpt(m metricsExporter) RouterOpt {
	return func(r *router) {
		r.metrics = m
	}
}

type router struct {
	metrics metricsExporter
}

func NewRouter(shop Shop, opts ...RouterOpt) http.Handler {
	var cfg router
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LogRequests)
	if cfg.metrics != nil {
		r.Use(cfg.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	RegisterShop(r, shop)
	return r
}

type ShopHandler struct {
	shop     Shop
	validate *validator.Validate
}

func RegisterShop(r chi.Router, shop Shop) {
	h := ShopHandler{shop: shop, validate: newValidator()}

	r.Route("/v1", func(r chi.Router) {
		r.Use(AllowJSON)

		r.Get("/products", h.GetProducts)
		r.Get("/products/{productID}", h.GetProduct)

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddItem)
			r.Put("/cart/items/{productID}", h.UpdateItem)
			r.Delete("/cart/items/{productID}", h.RemoveItem)
			r.Post("/checkout", h.Checkout)
			r.Get("/shipments", h.GetShipments)
		})
	})
}

func (h ShopHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.GetProducts"
	log := slog.With("op", op)

	ps, err := h.shop.Products(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, productsFromDomain(ps))
}

func (h ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.shop.Product(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, productFromDomain(p))
}

func (h ShopHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.GetCustomer"
	log := slog.With("op", op)

	c, err := h.shop.Customer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, customerFromDomain(c))
}

func (h ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.GetCart"
	log := slog.With("op", op)

	s, err := h.shop.Cart(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartSummaryFromDomain(s))
}

func (h ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.ClearCart"
	log := slog.With("op", op)

	s, err := h.shop.ClearCart(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartSummaryFromDomain(s))
}

func (h ShopHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	s, err := h.shop.AddToCart(
		r.Context(), chi.URLParam(r, "customerID"), req.ProductID, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartSummaryFromDomain(s))
}

func (h ShopHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.UpdateItem"
	log := slog.With("op", op)

	var req UpdateItemRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	s, err := h.shop.UpdateQuantity(
		r.Context(),
		chi.URLParam(r, "customerID"),
		chi.URLParam(r, "productID"),
		*req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartSummaryFromDomain(s))
}

func (h ShopHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.RemoveItem"
	log := slog.With("op", op)

	s, err := h.shop.RemoveFromCart(
		r.Context(),
		chi.URLParam(r, "customerID"),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, cartSummaryFromDomain(s))
}

func (h ShopHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.Checkout"
	log := slog.With("op", op)

	res, err := h.shop.Checkout(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		if domain.IsBusinessError(err) {
			writeJSON(w, log, http.StatusUnprocessableEntity,
				checkoutResultFromDomain(res),
			)
			return
		}
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, checkoutResultFromDomain(res))
	log.Info("checkout completed", "receiptID", res.Receipt.ID)
}

func (h ShopHandler) GetShipments(w http.ResponseWriter, r *http.Request) {
	const op = "ShopHandler.GetShipments"
	log := slog.With("op", op)

	l, err := h.shop.Shipments(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, shipmentLedgerFromDomain(l))
}

// decode parses and validates the request body, writing the error
// response itself when it returns false.
func (h ShopHandler) decode(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeJSON(w, log, http.StatusBadRequest,
			ErrorResponse{Message: "invalid JSON data"},
		)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, log, http.StatusUnprocessableEntity,
			ErrorResponse{Message: validationMessage(err)},
		)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case domain.IsBusinessError(err):
		writeJSON(w, log, http.StatusUnprocessableEntity,
			ErrorResponse{Message: publicMessage(err)},
		)
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound):
		writeJSON(w, log, http.StatusNotFound,
			ErrorResponse{Message: publicMessage(err)},
		)
	case errors.Is(err, domain.ErrLedgerUnavailable):
		log.Warn("shipment ledger is unavailable", "err", err)
		writeJSON(w, log, http.StatusServiceUnavailable,
			ErrorResponse{Message: domain.ErrLedgerUnavailable.Error()},
		)
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, log, http.StatusInternalServerError,
			ErrorResponse{Message: "internal error"},
		)
	}
}

// publicMessage strips the op chain off a domain error.
func publicMessage(err error) string {
	var productErr *domain.ProductError
	if errors.As(err, &productErr) {
		return productErr.Error()
	}

	var balanceErr *domain.BalanceError
	if errors.As(err, &balanceErr) {
		return balanceErr.Error()
	}

	for _, target := range []error{
		domain.ErrEmptyCart,
		domain.ErrInvalidQuantity,
		domain.ErrProductNotFound,
		domain.ErrCustomerNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
