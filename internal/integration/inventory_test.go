package integration_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/stretchr/testify/suite"
)

var inventoryShowtime = domain.ShowtimeKey{
	Movie:    TestShowtime.MovieName,
	Location: TestShowtime.Location,
	Timing:   TestShowtime.Timing,
	Hall:     domain.Hall{Name: TestShowtime.HallName.Name, Seats: TestShowtime.HallName.Seats},
	Day:      TestShowtime.Day,
	Date:     TestShowtime.Date,
	Month:    TestShowtime.Month,
}

type InventoryTestSuite struct {
	BaseSuite
	inventory *repository.PostgresInventoryRepository
	userID    uuid.UUID
}

func TestInventorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(InventoryTestSuite))
}

func (s *InventoryTestSuite) SetupTest() {
	s.BaseSuite.SetupTest()

	s.inventory = repository.NewPostgresInventoryRepository(s.app.DB)
	s.userID = s.app.createUser(s.T(), TestUserEmail).Id
}

func (s *InventoryTestSuite) claim(orderID string) domain.SeatClaim {
	return domain.SeatClaim{
		BookingID: uuid.New(),
		UserID:    s.userID,
		Payment:   domain.PaymentRef{OrderID: orderID, PaymentID: "pay_" + orderID},
		BookedAt:  time.Now(),
	}
}

func (s *InventoryTestSuite) reserve(orderID string, seats ...int) ([]domain.ReservedSeat, error) {
	return s.inventory.ReserveAtomic(context.Background(), inventoryShowtime, seats, time.Now(), s.claim(orderID))
}

// seatOwners maps every reserved seat of the showtime to the order holding it.
func (s *InventoryTestSuite) seatOwners() map[int]string {
	rows, err := s.app.DB.Query(context.Background(), `SELECT seat_number, order_id FROM reserved_seats`)
	s.Require().NoError(err)
	defer rows.Close()

	owners := make(map[int]string)
	for rows.Next() {
		var (
			seat    int
			orderID string
		)
		s.Require().NoError(rows.Scan(&seat, &orderID))
		owners[seat] = orderID
	}
	s.Require().NoError(rows.Err())

	return owners
}

func (s *InventoryTestSuite) TestReserveAtomicReportsTakenSeatsWithoutPartialRows() {
	_, err := s.reserve("order_first", 2, 3)
	s.Require().NoError(err)

	_, err = s.reserve("order_second", 1, 2, 3, 4)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrConflict))

	var conflict *domain.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal([]int{2, 3}, conflict.Seats)

	s.Equal(map[int]string{2: "order_first", 3: "order_first"}, s.seatOwners())

	_, err = s.inventory.ClaimByOrder(context.Background(), "order_second")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *InventoryTestSuite) TestConcurrentReserveAtomicHasOneWinnerPerSeat() {
	const callers = 8

	// the showtime row exists before the race starts
	_, err := s.reserve("order_setup", 12)
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		ownSeat   = make(map[string]int)
		conflicts = make(map[string][]int)
		others    []error
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			orderID := fmt.Sprintf("order_%d", i)
			// every caller wants seat 5 and one seat nobody else asks for
			_, err := s.reserve(orderID, 5, 20+i)

			mu.Lock()
			defer mu.Unlock()

			ownSeat[orderID] = 20 + i

			var conflict *domain.ConflictError
			switch {
			case err == nil:
				winners = append(winners, orderID)
			case errors.As(err, &conflict):
				conflicts[orderID] = conflict.Seats
			default:
				others = append(others, err)
			}
		}(i)
	}

	wg.Wait()

	s.Empty(others)
	s.Require().Len(winners, 1)
	s.Len(conflicts, callers-1)

	winner := winners[0]
	for orderID, taken := range conflicts {
		s.Equal([]int{5}, taken, orderID)
	}

	winnerSeat := ownSeat[winner]

	s.Equal(map[int]string{
		5:          winner,
		12:         "order_setup",
		winnerSeat: winner,
	}, s.seatOwners())

	claimed, err := s.inventory.ClaimByOrder(context.Background(), winner)
	s.Require().NoError(err)
	s.Equal([]int{5, winnerSeat}, claimed.Seats)
}
