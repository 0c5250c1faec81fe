package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	accounthttp "github.com/dwikikusuma/techstore/internal/account/http"
	carthttp "github.com/dwikikusuma/techstore/internal/cart/http"
	cataloghttp "github.com/dwikikusuma/techstore/internal/catalog/http"
	checkouthttp "github.com/dwikikusuma/techstore/internal/checkout/http"
	orderhttp "github.com/dwikikusuma/techstore/internal/order/http"
	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/dwikikusuma/techstore/pkg/metrics"
	"github.com/dwikikusuma/techstore/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type handlers struct {
	catalog  *cataloghttp.Handler
	cart     *carthttp.Handler
	checkout *checkouthttp.Handler
	account  *accounthttp.Handler
	orders   *orderhttp.Handler
}

// readiness checks are run by /readyz, keyed by dependency name.
type readiness map[string]func(ctx context.Context) error

func newRouter(log *slog.Logger, sessions *session.Manager, h handlers, ready readiness) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range ready {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			log.Warn("not ready", "failed", failed)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false, "failed": failed})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ready": true})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Mount("/products", h.catalog.Routes())
		r.Mount("/cart", h.cart.Routes())
		r.Mount("/checkout", h.checkout.Routes())
		r.Route("/user", func(r chi.Router) {
			r.Mount("/orders", h.orders.Routes())
			r.Get("/searchorders", h.orders.SearchOrders)
			r.Mount("/", h.account.Routes())
		})
	})
	return r
}
