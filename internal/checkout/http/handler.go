package http

import (
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/techstore/internal/checkout/app"
	"github.com/dwikikusuma/techstore/internal/checkout/domain"
	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const IdempotencyHeader = "Idempotency-Key"

const placedMessage = "Order placed successfully! Thank you for your purchase."

type Handler struct {
	log     *slog.Logger
	service *app.Service
}

func NewHandler(log *slog.Logger, service *app.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.checkout)
	r.Get("/quote", h.quote)
	return r
}

type checkoutReq struct {
	DeliveryAddress string `json:"deliveryAddress"`
}

type CheckoutResp struct {
	Success bool            `json:"success"`
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
	Message string          `json:"message"`
}

type quoteLineDTO struct {
	ProductID    int64           `json:"productId"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	CartPrice    decimal.Decimal `json:"cartPrice"`
	PriceChanged bool            `json:"priceChanged"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	InStock      bool            `json:"inStock"`
}

type QuoteDTO struct {
	Lines     []quoteLineDTO  `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

func toQuoteDTO(q domain.Quote) QuoteDTO {
	dto := QuoteDTO{Lines: make([]quoteLineDTO, 0, len(q.Lines)), Total: q.Total, CartTotal: q.CartTotal}
	for _, l := range q.Lines {
		dto.Lines = append(dto.Lines, quoteLineDTO{
			ProductID:    l.ProductID,
			Name:         l.Name,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			CartPrice:    l.CartPrice,
			PriceChanged: l.PriceChanged(),
			LineTotal:    l.LineTotal,
			InStock:      l.InStock,
		})
	}
	return dto
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.ID == "" {
		httpx.WriteError(w, r, apperr.ErrUnauthorized)
		return
	}

	var body checkoutReq
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}

	req := app.Request{
		SessionID:       sess.ID,
		DeliveryAddress: body.DeliveryAddress,
		IdempotencyKey:  r.Header.Get(IdempotencyHeader),
	}
	if sess.LoggedIn() {
		uid := sess.UserID
		req.UserID = &uid
	}

	receipt, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if receipt.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	httpx.WriteJSON(w, http.StatusOK, CheckoutResp{
		Success: true,
		OrderID: receipt.OrderID,
		Total:   receipt.Total,
		Message: placedMessage,
	})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.ID == "" {
		httpx.WriteError(w, r, apperr.ErrUnauthorized)
		return
	}
	q, err := h.service.Quote(r.Context(), sess.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toQuoteDTO(q))
}
