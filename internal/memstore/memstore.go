// Package memstore keeps inventory, ledger, identities and holds in process
// memory. It backs the -store=memory mode and the unit tests.
package memstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// Store groups the in-memory stores so the inventory can see which claims
// already reached the ledger.
type Store struct {
	Inventory       *Inventory
	Ledger          *Ledger
	Users           *Users
	Holds           *Holds
	Reconciliations *Reconciliations
}

func New() *Store {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Store {
	ledger := &Ledger{
		now:     now,
		byID:    make(map[uuid.UUID]int),
		byOrder: make(map[string]int),
	}

	return &Store{
		Inventory: &Inventory{
			showtimes: make(map[string]map[int]seatRecord),
			ledger:    ledger,
		},
		Ledger: ledger,
		Users: &Users{
			now:  now,
			byID: make(map[uuid.UUID]domain.User),
		},
		Holds: &Holds{
			now:    now,
			holds:  make(map[string]holdEntry),
			quotes: make(map[string]quoteEntry),
		},
		Reconciliations: &Reconciliations{},
	}
}
