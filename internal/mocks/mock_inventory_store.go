package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInventoryStore struct {
	mock.Mock
	domain.InventoryStore
}

func (m *MockInventoryStore) Query(ctx context.Context, key domain.ShowtimeKey) ([]domain.ReservedSeat, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservedSeat), args.Error(1)
}

func (m *MockInventoryStore) ReserveAtomic(
	ctx context.Context,
	key domain.ShowtimeKey,
	seats []int,
	reservedAt time.Time,
	claim domain.SeatClaim) ([]domain.ReservedSeat, error) {

	args := m.Called(ctx, key, seats, reservedAt, claim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservedSeat), args.Error(1)
}

func (m *MockInventoryStore) ClaimByOrder(ctx context.Context, orderID string) (*domain.Booking, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInventoryStore) ListUnbooked(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
