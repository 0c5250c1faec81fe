package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dwikikusuma/techstore/internal/catalog/app"
	"github.com/dwikikusuma/techstore/internal/catalog/domain"
	"github.com/dwikikusuma/techstore/internal/catalog/infra/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.NewProductRepo(
		domain.Product{ID: 1, Name: "Wireless Mouse", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "accessories"},
		domain.Product{ID: 2, Name: "USB Cable", Price: decimal.RequireFromString("5.00"), Stock: 1, Category: "accessories"},
		domain.Product{ID: 3, Name: "4K Monitor", Price: decimal.RequireFromString("349.00"), Stock: 12, Category: "displays"},
	)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), app.NewService(repo))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getProducts(t *testing.T, url string) (int, []ProductDTO) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []ProductDTO
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestListProducts(t *testing.T) {
	srv := newServer(t)

	t.Run("all", func(t *testing.T) {
		status, ps := getProducts(t, srv.URL+"/")
		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, ps, 3)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		_, ps := getProducts(t, srv.URL+"/?search=usb")
		require.Len(t, ps, 1)
		assert.Equal(t, int64(2), ps[0].ID)
	})

	t.Run("price range", func(t *testing.T) {
		_, ps := getProducts(t, srv.URL+"/?minPrice=5&maxPrice=10")
		assert.Len(t, ps, 2)
	})

	t.Run("bad price -> 400", func(t *testing.T) {
		status, _ := getProducts(t, srv.URL+"/?minPrice=cheap")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("low stock", func(t *testing.T) {
		_, ps := getProducts(t, srv.URL+"/low-stock?threshold=5")
		require.Len(t, ps, 2)
		assert.Equal(t, int64(2), ps[0].ID)
	})
}

func TestProductCRUD(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/", "application/json",
		strings.NewReader(`{"name":"Webcam","price":"49.90","stock":7,"category":"video"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created ProductDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Webcam", created.Name)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("49.9")))
	assert.Equal(t, domain.PlaceholderImage, created.Image)

	t.Run("get missing -> 404", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/999")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad id -> 400", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/abc")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid create -> 400", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"name":"","price":"1"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/1", nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/1", nil)
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
