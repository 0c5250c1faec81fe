package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dwikikusuma/techstore/internal/account/app"
	"github.com/dwikikusuma/techstore/internal/account/domain"
)

type UserRepo struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	nextID  int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byEmail: make(map[string]domain.User)}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return domain.User{}, app.ErrEmailTaken
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = u
	return u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, app.ErrNotFound
}
