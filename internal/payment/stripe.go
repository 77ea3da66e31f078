package payment

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeGateway maps a payment order to a Stripe PaymentIntent. The intent ID
// is used as the order ID.
type StripeGateway struct {
	client *paymentintent.Client
}

func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})

	return &StripeGateway{
		client: &paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (s *StripeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		Metadata: map[string]string{
			"receipt": receipt,
		},
	}
	params.Context = ctx

	intent, err := s.client.New(params)
	if err != nil {
		return "", domain.GatewayError(err)
	}

	return intent.ID, nil
}
