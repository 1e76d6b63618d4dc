package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
)

// OrderRequest describes a gateway order for a payout or recharge.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Gateway represents a connector to an external payment processor.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (string, error)
}

// RazorpayGateway creates orders through the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway builds a gateway authenticated with key and secret.
func NewRazorpayGateway(key, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(key, secret)}
}

// Name identifies the gateway in checkout info.
func (g *RazorpayGateway) Name() string { return "razorpay" }

// CreateOrder registers an order and returns its Razorpay id.
func (g *RazorpayGateway) CreateOrder(_ context.Context, req OrderRequest) (string, error) {
	order, err := g.client.Order.Create(map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", errors.New("razorpay order: response has no id")
	}
	return id, nil
}

// StaticGateway approves every order with a synthetic id.
type StaticGateway struct{}

// Name identifies the gateway in checkout info.
func (StaticGateway) Name() string { return "static" }

// CreateOrder returns a random order id.
func (StaticGateway) CreateOrder(_ context.Context, _ OrderRequest) (string, error) {
	return "order_" + uuid.NewString(), nil
}
