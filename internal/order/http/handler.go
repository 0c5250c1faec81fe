package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/techstore/internal/order/app"
	"github.com/dwikikusuma/techstore/internal/order/domain"
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

// Routes serves the signed-in user's history. Mount it under /api/user/orders.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{orderId}", h.get)
	return r
}

type OrderItemDTO struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

type OrderDTO struct {
	ID              int64           `json:"id"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	DeliveryAddress string          `json:"deliveryAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []OrderItemDTO  `json:"items"`
}

func ToDTO(o domain.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		Total:           o.Total,
		Status:          o.Status,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        it.Price,
		})
	}
	return dto
}

func toDTOs(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToDTO(o))
	}
	return out
}

func currentUser(r *http.Request) (int64, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok || !sess.LoggedIn() {
		return 0, apperr.ErrUnauthorized
	}
	return sess.UserID, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	orders, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDTOs(orders))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	orderID, err := httpx.PathInt64(r, "orderId")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	o, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToDTO(o))
}

// SearchOrders handles GET /api/user/searchorders?searchTerm=.
func (h *Handler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	orders, err := h.service.Search(r.Context(), userID, r.URL.Query().Get("searchTerm"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDTOs(orders))
}
