package api

import (
	"context"
	"fmt"

	"github.com/PHJ369906/aox-miniapp/internal/connection"
)

// OrderStatus filters the order list.
type OrderStatus string

const (
	OrderAll     OrderStatus = "all"
	OrderPay     OrderStatus = "pay"
	OrderShip    OrderStatus = "ship"
	OrderReceive OrderStatus = "receive"
	OrderRefund  OrderStatus = "refund"
)

// ParseOrderStatus validates s; empty means all.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case "":
		return OrderAll, nil
	case OrderAll, OrderPay, OrderShip, OrderReceive, OrderRefund:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// OrderItem is one order in the list.
type OrderItem struct {
	ID     string      `json:"id"`
	Status OrderStatus `json:"status"`
	Title  string      `json:"title"`
	Amount float64     `json:"amount"`
	Time   string      `json:"time"`
}

// OrderStats counts orders per status.
type OrderStats struct {
	All     int `json:"all"`
	Pay     int `json:"pay"`
	Ship    int `json:"ship"`
	Receive int `json:"receive"`
	Refund  int `json:"refund"`
}

type orderListQuery struct {
	PageNum  int         `json:"pageNum"`
	PageSize int         `json:"pageSize"`
	Status   OrderStatus `json:"status,omitempty"`
}

// OrderAPI covers orders.
type OrderAPI struct {
	e *connection.Engine
}

// List returns a page of orders. The status filter is omitted for all.
func (a *OrderAPI) List(ctx context.Context, pageNum, pageSize int, status OrderStatus) (*Page[OrderItem], error) {
	q := orderListQuery{PageNum: pageNum, PageSize: pageSize}
	if status != OrderAll {
		q.Status = status
	}
	return connection.Get[*Page[OrderItem]](ctx, a.e, Prefix+"/orders", q)
}

// Stats returns order counts per status.
func (a *OrderAPI) Stats(ctx context.Context) (*OrderStats, error) {
	return connection.Get[*OrderStats](ctx, a.e, Prefix+"/orders/stats", nil)
}
