package http

import (
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/techstore/internal/cart/app"
	"github.com/dwikikusuma/techstore/internal/cart/domain"
	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	log     *slog.Logger
	service *app.Service
}

func NewHandler(log *slog.Logger, service *app.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.view)
	r.Post("/", h.add)
	r.Put("/", h.update)
	r.Delete("/", h.clear)
	r.Delete("/{productId}", h.remove)
	return r
}

type itemReq struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type productDTO struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock int             `json:"stock"`
}

type itemDTO struct {
	Product  productDTO      `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type ViewDTO struct {
	CartItems   []itemDTO       `json:"cartItems"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func ToView(c domain.Cart) ViewDTO {
	sum := c.Summary()
	v := ViewDTO{
		CartItems:   make([]itemDTO, 0, len(c.Items)),
		TotalItems:  sum.TotalItems,
		TotalAmount: sum.TotalAmount,
	}
	for _, it := range c.Items {
		v.CartItems = append(v.CartItems, itemDTO{
			Product: productDTO{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: it.Product.Price,
				Image: it.Product.Image,
				Stock: it.Product.Stock,
			},
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
		})
	}
	return v
}

func sessionID(r *http.Request) (string, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.ID == "" {
		return "", apperr.ErrUnauthorized
	}
	return sess.ID, nil
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cart, err := h.service.GetCart(r.Context(), sid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToView(cart))
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req itemReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cart, err := h.service.AddItem(r.Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToView(cart))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req itemReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cart, err := h.service.SetItemQuantity(r.Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToView(cart))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	productID, err := httpx.PathInt64(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	cart, err := h.service.RemoveItem(r.Context(), sid, productID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToView(cart))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.ClearCart(r.Context(), sid); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToView(domain.New(sid)))
}
