package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/pkg/domain"
)

// User is the booking engine's read-side view of an account.
type User struct {
	id        uuid.UUID
	name      string
	email     string
	createdAt time.Time
}

// NewUser creates a user.
func NewUser(name, email string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("user name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("invalid email: " + email)
	}
	return &User{
		id:        uuid.New(),
		name:      name,
		email:     email,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a User from persistence.
func Reconstruct(id uuid.UUID, name, email string, createdAt time.Time) *User {
	return &User{
		id:        id,
		name:      name,
		email:     email,
		createdAt: createdAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) CreatedAt() time.Time { return u.createdAt }
