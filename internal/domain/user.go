package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the identity a booking is attached to. Contact verification happens
// before a user reaches this service.
type User struct {
	ID        uuid.UUID
	Email     string
	Phone     string
	CreatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetById(ctx context.Context, id uuid.UUID) (*User, error)
	GetByContact(ctx context.Context, email, phone string) (*User, error)
}
