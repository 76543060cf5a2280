package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
)

// CreateOrder posts o and returns the server's copy with its assigned id.
// The order's idempotency key rides along as a header so a replayed upload
// of the same order can be recognised by the server.
func (c *Client) CreateOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	var headers map[string]string
	if o.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": o.IdempotencyKey}
	}
	var out order.Order
	if err := c.post(ctx, "/orders", o, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderByID fetches one order.
func (c *Client) OrderByID(ctx context.Context, id int64) (*order.Order, error) {
	var out order.Order
	if err := c.get(ctx, fmt.Sprintf("/orders/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrdersByCustomer fetches a customer's full order history.
func (c *Client) OrdersByCustomer(ctx context.Context, email string) ([]*order.Order, error) {
	var out []*order.Order
	if err := c.get(ctx, "/orders/customer/"+url.PathEscape(email), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrdersByStatus fetches all orders in a given status.
func (c *Client) OrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	var out []*order.Order
	if err := c.get(ctx, "/orders/status/"+url.PathEscape(string(status)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentOrders fetches the most recent orders.
func (c *Client) RecentOrders(ctx context.Context, count int) ([]*order.Order, error) {
	var out []*order.Order
	if err := c.get(ctx, fmt.Sprintf("/orders/recent?count=%d", count), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatus changes an order's business status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) error {
	body := struct {
		Status order.Status `json:"status"`
	}{Status: status}
	return c.put(ctx, fmt.Sprintf("/orders/%d/status", id), body)
}

// DeleteOrder removes an order on the server.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/orders/%d", id))
}
