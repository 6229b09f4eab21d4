// Package commerce is a REST client for the payments (WooCommerce) site:
// customer lookup, order create/read/update and admission product updates.
package commerce

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spinozarabel/headstart-admission/internal/config"
)

// Customer is a commerce-site customer record. Username carries the LMS
// numeric id used to derive the payment virtual account.
type Customer struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Meta is one entry of an order's metadata bag.
type Meta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Order is a commerce-site order.
type Order struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	MetaData      []Meta `json:"meta_data"`
}

// MetaValue returns the value of a metadata key, "" when absent.
func (o *Order) MetaValue(key string) string {
	for _, m := range o.MetaData {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// Address is the billing/shipping block of an order.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is one order line.
type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is the payload for order creation and update.
type OrderRequest struct {
	CustomerID         int64      `json:"customer_id,omitempty"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	PaymentMethodTitle string     `json:"payment_method_title,omitempty"`
	SetPaid            bool       `json:"set_paid"`
	Status             string     `json:"status,omitempty"`
	Billing            *Address   `json:"billing,omitempty"`
	Shipping           *Address   `json:"shipping,omitempty"`
	LineItems          []LineItem `json:"line_items,omitempty"`
	MetaData           []Meta     `json:"meta_data,omitempty"`
}

// Client calls the commerce REST API with key+secret query-string auth.
type Client struct {
	http *resty.Client
}

// NewClient builds a client from configuration. Every request carries the
// configured timeout; a call that exceeds it fails like any transport error.
func NewClient(cfg config.CommerceConfig) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/wp-json/wc/v3").
		SetQueryParam("consumer_key", cfg.Key).
		SetQueryParam("consumer_secret", cfg.Secret).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	return &Client{http: http}
}

// CustomerByEmail looks up the subscriber customer with the given email.
// Returns (nil, nil) when no customer matches.
func (c *Client) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var customers []Customer
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("role", "subscriber").
		SetQueryParam("email", email).
		SetResult(&customers).
		Get("/customers")
	if err != nil {
		return nil, fmt.Errorf("commerce: get customer by email: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("get customer by email", resp)
	}
	if len(customers) == 0 {
		return nil, nil
	}
	return &customers[0], nil
}

// Order fetches an order by id.
func (c *Client) Order(ctx context.Context, id int64) (*Order, error) {
	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&order).
		Get("/orders/" + strconv.FormatInt(id, 10))
	if err != nil {
		return nil, fmt.Errorf("commerce: get order %d: %w", id, err)
	}
	if resp.IsError() {
		return nil, apiError(fmt.Sprintf("get order %d", id), resp)
	}
	return &order, nil
}

// CreateOrder creates a new order.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("commerce: create order: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("create order", resp)
	}
	return &order, nil
}

// UpdateOrder applies a partial update to an existing order.
func (c *Client) UpdateOrder(ctx context.Context, id int64, req OrderRequest) (*Order, error) {
	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		Put("/orders/" + strconv.FormatInt(id, 10))
	if err != nil {
		return nil, fmt.Errorf("commerce: update order %d: %w", id, err)
	}
	if resp.IsError() {
		return nil, apiError(fmt.Sprintf("update order %d", id), resp)
	}
	return &order, nil
}

// UpdateProduct rewrites the shared admission product's display name and
// price just before order creation.
func (c *Client) UpdateProduct(ctx context.Context, id int64, name, regularPrice string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name, "regular_price": regularPrice}).
		Put("/products/" + strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("commerce: update product %d: %w", id, err)
	}
	if resp.IsError() {
		return apiError(fmt.Sprintf("update product %d", id), resp)
	}
	return nil
}

func apiError(op string, resp *resty.Response) error {
	return fmt.Errorf("commerce: %s: %s: %s", op, resp.Status(), resp.String())
}
