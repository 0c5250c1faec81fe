package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AggregateType    = "order"
	EventOrderPlaced = "order.placed"
)

type OrderPlaced struct {
	OrderID         int64             `json:"orderId"`
	UserID          *int64            `json:"userId,omitempty"`
	Total           decimal.Decimal   `json:"total"`
	DeliveryAddress string            `json:"deliveryAddress"`
	CreatedAt       time.Time         `json:"createdAt"`
	Items           []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func NewOrderPlaced(o Order) OrderPlaced {
	e := OrderPlaced{
		OrderID:         o.ID,
		UserID:          o.UserID,
		Total:           o.Total,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt,
		Items:           make([]OrderPlacedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		e.Items = append(e.Items, OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return e
}

func (e OrderPlaced) AggregateID() string { return strconv.FormatInt(e.OrderID, 10) }

func (e OrderPlaced) Payload() ([]byte, error) { return json.Marshal(e) }
