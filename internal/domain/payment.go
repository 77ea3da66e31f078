package domain

import "context"

type PaymentGateway interface {
	// CreateOrder registers an order of amount minor units with the provider
	// and returns its order ID.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
}

type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}
