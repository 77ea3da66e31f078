package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// FakeGateway creates orders locally. It is used in dev mode and tests.
type FakeGateway struct {
	mu     sync.Mutex
	orders []Order
	Err    error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return "", domain.GatewayError(f.Err)
	}

	if err := ctx.Err(); err != nil {
		return "", domain.GatewayError(err)
	}

	order := Order{
		ID:       "order_" + uuid.NewString(),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	f.orders = append(f.orders, order)

	return order.ID, nil
}

// Orders returns a copy of every order created so far.
func (f *FakeGateway) Orders() []Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	orders := make([]Order, len(f.orders))
	copy(orders, f.orders)

	return orders
}
