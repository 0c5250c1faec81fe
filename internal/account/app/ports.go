package app

import (
	"context"

	"github.com/dwikikusuma/techstore/internal/account/domain"
)

type UserRepo interface {
	// Create returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
