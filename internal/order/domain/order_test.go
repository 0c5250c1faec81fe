package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderDefaults(t *testing.T) {
	o := NewOrder(nil, "  ", decimal.RequireFromString("5"), []OrderItem{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(5)}})

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, DefaultDeliveryAddress, o.DeliveryAddress)
	assert.Equal(t, UnknownProductName, o.Items[0].ProductName)
	assert.Equal(t, PlaceholderImage, o.Items[0].ProductImage)

	o.Complete()
	assert.Equal(t, StatusCompleted, o.Status)
}

func TestItemsTotal(t *testing.T) {
	o := NewOrder(nil, "221B Baker St", decimal.Zero, []OrderItem{
		{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("9.99")},
		{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("5.00")},
	})
	assert.Equal(t, "24.98", o.ItemsTotal().StringFixed(2))
}

func TestMatches(t *testing.T) {
	o := Order{ID: 1042, Items: []OrderItem{{ProductName: "Wireless Mouse"}, {ProductName: "USB-C Cable"}}}

	cases := map[string]bool{
		"":        true,
		"   ":     true,
		"104":     true,
		"042":     true,
		"mouse":   true,
		"USB-C":   true,
		"monitor": false,
		"2000":    false,
	}
	for term, want := range cases {
		assert.Equal(t, want, o.Matches(term), "term %q", term)
	}
}

func TestFilterBlankTermKeepsAll(t *testing.T) {
	orders := []Order{{ID: 1}, {ID: 2}, {ID: 3}}
	assert.Equal(t, orders, Filter(orders, ""))
	assert.Len(t, Filter(orders, "2"), 1)
}

func TestOrderPlacedPayload(t *testing.T) {
	uid := int64(7)
	o := Order{ID: 12, UserID: &uid, Total: decimal.RequireFromString("24.98"), Items: []OrderItem{
		{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("9.99")},
	}}

	e := NewOrderPlaced(o)
	assert.Equal(t, "12", e.AggregateID())

	raw, err := e.Payload()
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, float64(12), back["orderId"])
	assert.Equal(t, "24.98", back["total"])
}
