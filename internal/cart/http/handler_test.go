package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dwikikusuma/techstore/internal/cart/app"
	"github.com/dwikikusuma/techstore/internal/cart/infra/adapter"
	"github.com/dwikikusuma/techstore/internal/cart/infra/memory"
	catalogapp "github.com/dwikikusuma/techstore/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/techstore/internal/catalog/domain"
	catalogmem "github.com/dwikikusuma/techstore/internal/catalog/infra/memory"
	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	catalog := catalogapp.NewService(catalogmem.NewProductRepo(
		catalogdomain.Product{ID: 1, Name: "Wireless Mouse", Price: decimal.RequireFromString("9.99"), Stock: 5},
		catalogdomain.Product{ID: 2, Name: "USB Cable", Price: decimal.RequireFromString("5.00"), Stock: 1},
	))
	svc := app.NewService(memory.NewCartStore(time.Hour), adapter.NewCatalogServiceReader(catalog))
	mgr := session.NewManager(session.NewMemoryStore(time.Hour), session.NewTokens("k", "techstore", time.Hour), "SID", time.Hour)
	return mgr.Middleware(NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).Routes())
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path, body string) (int, ViewDTO) {
	c.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if c.token != "" {
		req.Header.Set(session.HeaderName, c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	c.token = rec.Header().Get(session.HeaderName)

	var v ViewDTO
	if rec.Code == http.StatusOK {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &v))
	}
	return rec.Code, v
}

func TestCartEndpoints(t *testing.T) {
	c := &client{t: t, h: newHandler(t)}

	code, v := c.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, v.CartItems)

	code, _ = c.do(http.MethodPost, "/", `{"productId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	code, v = c.do(http.MethodPost, "/", `{"productId":2,"quantity":1}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, v.TotalItems)
	assert.Equal(t, "24.98", v.TotalAmount.StringFixed(2))
	assert.Equal(t, "19.98", v.CartItems[0].Subtotal.StringFixed(2))

	t.Run("over stock -> 409", func(t *testing.T) {
		code, _ := c.do(http.MethodPost, "/", `{"productId":2,"quantity":1}`)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("unknown product -> 404", func(t *testing.T) {
		code, _ := c.do(http.MethodPost, "/", `{"productId":42,"quantity":1}`)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("zero quantity add -> 400", func(t *testing.T) {
		code, _ := c.do(http.MethodPost, "/", `{"productId":1,"quantity":0}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("put zero removes", func(t *testing.T) {
		code, v := c.do(http.MethodPut, "/", `{"productId":2,"quantity":0}`)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, v.CartItems, 1)
	})

	t.Run("delete missing item -> 404", func(t *testing.T) {
		code, _ := c.do(http.MethodDelete, "/2", "")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("another session sees its own cart", func(t *testing.T) {
		other := &client{t: t, h: c.h}
		code, v := other.do(http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, code)
		assert.Empty(t, v.CartItems)
	})

	t.Run("clear", func(t *testing.T) {
		code, v := c.do(http.MethodDelete, "/", "")
		require.Equal(t, http.StatusOK, code)
		assert.Zero(t, v.TotalItems)

		_, v = c.do(http.MethodGet, "/", "")
		assert.Empty(t, v.CartItems)
	})
}
