package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dwikikusuma/techstore/internal/catalog/app"
	"github.com/dwikikusuma/techstore/internal/catalog/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	log     *slog.Logger
	service *app.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *app.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	q := r.URL.Query()
	f := domain.ListFilter{
		Query:    q.Get("search"),
		Category: q.Get("category"),
	}
	var err error
	if f.MinPrice, err = parsePrice(q.Get("minPrice")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if f.MaxPrice, err = parsePrice(q.Get("maxPrice")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	products, err := h.service.ListProducts(ctx, f)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDTOs(products))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := httpx.QueryInt(r, "threshold", app.DefaultLowStockThreshold)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	products, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDTOs(products))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToDTO(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.service.CreateProduct(ctx, req.toDomain(0))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.log.Info("product created", "product_id", p.ID)
	httpx.WriteJSON(w, http.StatusCreated, ToDTO(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), req.toDomain(id))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToDTO(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q", apperr.ErrInvalidInput, raw)
	}
	return &d, nil
}
