package hold

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var testShowtime = domain.ShowtimeKey{
	Movie:    "Inception",
	Location: "Downtown",
	Timing:   "18:30",
	Hall:     domain.Hall{Name: "Audi 1", Seats: 40},
	Day:      "Mon",
	Date:     "03",
	Month:    "feb",
}

type RedisStoreTestSuite struct {
	suite.Suite
	client *mocks.MockRedisClient
	store  *RedisStore
}

func (s *RedisStoreTestSuite) SetupTest() {
	s.client = new(mocks.MockRedisClient)
	s.store = NewRedisStore(s.client)
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestAcquire() {
	keys := []string{
		seatHoldKey(testShowtime.Hash(), 3),
		seatHoldKey(testShowtime.Hash(), 5),
	}

	tests := []struct {
		name         string
		result       *redis.Cmd
		wantErr      error
		wantConflict []int
	}{
		{
			name:   "should hold every seat when none is held by another owner",
			result: redis.NewCmdResult("OK", nil),
		},
		{
			name:         "should return conflict naming seats held by another owner",
			result:       redis.NewCmdResult(nil, mocks.MockRedisError{Msg: "seat already held 5"}),
			wantErr:      domain.ErrConflict,
			wantConflict: []int{5},
		},
		{
			name:   "should wrap unexpected redis errors",
			result: redis.NewCmdResult(nil, fmt.Errorf("connection refused")),
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.client.AssertExpectations(s.T())

			s.client.On("EvalSha", mock.Anything, mock.Anything, keys, "owner-1", int64(600_000), 3, 5).Return(tt.result)

			err := s.store.Acquire(context.Background(), testShowtime, []int{3, 5}, "owner-1", 10*time.Minute)

			switch {
			case tt.wantErr != nil:
				s.Require().Error(err)
				s.True(errors.Is(err, tt.wantErr))

				var conflict *domain.ConflictError
				s.Require().True(errors.As(err, &conflict))
				s.Equal(tt.wantConflict, conflict.Seats)
			case tt.result.Err() != nil:
				s.Require().Error(err)
				s.False(errors.Is(err, domain.ErrConflict))
			default:
				s.NoError(err)
			}
		})
	}
}

func (s *RedisStoreTestSuite) TestAcquireKeepsSubSecondTTL() {
	keys := []string{seatHoldKey(testShowtime.Hash(), 2)}

	s.client.On("EvalSha", mock.Anything, mock.Anything, keys, "owner-1", int64(500), 2).Return(redis.NewCmdResult("OK", nil))

	err := s.store.Acquire(context.Background(), testShowtime, []int{2}, "owner-1", 500*time.Millisecond)
	s.Require().NoError(err)

	s.client.AssertExpectations(s.T())
}

func (s *RedisStoreTestSuite) TestOwned() {
	keys := []string{seatHoldKey(testShowtime.Hash(), 7)}

	s.client.On("EvalSha", mock.Anything, mock.Anything, keys, "order-1").Return(redis.NewCmdResult(int64(1), nil)).Once()
	s.client.On("EvalSha", mock.Anything, mock.Anything, keys, "order-2").Return(redis.NewCmdResult(int64(0), nil)).Once()

	owned, err := s.store.Owned(context.Background(), testShowtime, []int{7}, "order-1")
	s.Require().NoError(err)
	s.True(owned)

	owned, err = s.store.Owned(context.Background(), testShowtime, []int{7}, "order-2")
	s.Require().NoError(err)
	s.False(owned)

	s.client.AssertExpectations(s.T())
}

func (s *RedisStoreTestSuite) TestGetQuote() {
	quote := domain.Quote{
		OrderID:   "order_1",
		HoldToken: "token",
		UserID:    uuid.MustParse("8c1a4c1e-0e55-4d0b-9d53-6b8a0f0b7e21"),
		Showtime:  testShowtime,
		Seats:     []int{1, 2},
		Amount:    30000,
		Currency:  "INR",
		ExpiresAt: time.Date(2026, 2, 3, 18, 0, 0, 0, time.UTC),
	}
	quoteBytes, err := json.Marshal(quote)
	s.Require().NoError(err)

	s.client.On("Get", mock.Anything, "quote:order_1").Return(redis.NewStringResult(string(quoteBytes), nil))
	s.client.On("Get", mock.Anything, "quote:order_2").Return(redis.NewStringResult("", redis.Nil))

	got, err := s.store.GetQuote(context.Background(), "order_1")
	s.Require().NoError(err)
	s.Empty(cmp.Diff(&quote, got))

	_, err = s.store.GetQuote(context.Background(), "order_2")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RedisStoreTestSuite) TestSaveQuoteUsesHoldTTL() {
	quote := domain.Quote{OrderID: "order_1", Seats: []int{4}}

	s.client.On("Set", mock.Anything, "quote:order_1", mock.Anything, 10*time.Minute).
		Return(redis.NewStatusResult("OK", nil))

	s.NoError(s.store.SaveQuote(context.Background(), quote, 10*time.Minute))
	s.client.AssertExpectations(s.T())
}

func TestParseHeldSeats(t *testing.T) {
	tests := []struct {
		msg  string
		want []int
	}{
		{msg: "seat already held 3,5", want: []int{3, 5}},
		{msg: "ERR seat already held 12", want: []int{12}},
		{msg: "something else", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseHeldSeats(tt.msg)); diff != "" {
				t.Errorf("parseHeldSeats() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
