package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/techstore/internal/account/domain"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = fmt.Errorf("account: %w", apperr.ErrInvalidInput)
	ErrNotFound           = fmt.Errorf("user: %w", apperr.ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
)

const minPasswordLen = 6

type Service struct {
	repo   UserRepo
	hasher PasswordHasher
}

func NewService(repo UserRepo, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	email := normalizeEmail(reg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(reg.Password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
	})
}

// Login does not reveal whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrInvalidInput
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	if id <= 0 {
		return domain.User{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

func (h BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
