package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"vehirent/internal/entities"
)

// StripeGateway creates a Stripe PaymentIntent for every order. Callback
// signatures are checked with the shared Signer.
type StripeGateway struct {
	*Signer
	intents paymentintent.Client
}

func NewStripeGateway(secretKey, signingSecret string, timeout time.Duration, log *logrus.Logger) *StripeGateway {
	return newStripeGateway(secretKey, signingSecret, timeout, log, "")
}

// newStripeGateway lets tests point the client at a local server.
func newStripeGateway(secretKey, signingSecret string, timeout time.Duration, log *logrus.Logger, baseURL string) *StripeGateway {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     log,
		MaxNetworkRetries: stripe.Int64(1),
	}
	if baseURL != "" {
		cfg.URL = stripe.String(baseURL)
		cfg.MaxNetworkRetries = stripe.Int64(0)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &StripeGateway{
		Signer:  NewSigner(signingSecret),
		intents: paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amount float64, currency string) (*entities.Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	intent, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}
	return &entities.Order{
		OrderID:  intent.ID,
		Amount:   float64(intent.Amount) / 100,
		Currency: string(intent.Currency),
	}, nil
}

func (g *StripeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.Verify(orderID, paymentID, signature)
}
