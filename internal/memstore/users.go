package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

type Users struct {
	mu   sync.RWMutex
	now  func() time.Time
	byID map[uuid.UUID]domain.User
}

func (u *Users) Create(ctx context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, existing := range u.byID {
		if sameContact(existing, user.Email, user.Phone) {
			return domain.ErrUserAlreadyExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = u.now()

	u.byID[user.ID] = *user

	return nil
}

func (u *Users) GetById(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byID[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &user, nil
}

func (u *Users) GetByContact(ctx context.Context, email, phone string) (*domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	for _, user := range u.byID {
		if sameContact(user, email, phone) {
			return &user, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func sameContact(user domain.User, email, phone string) bool {
	return (email != "" && user.Email == email) || (phone != "" && user.Phone == phone)
}
