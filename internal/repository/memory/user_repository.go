package memory

import (
	"context"
	"fmt"
	"strings"

	"docsearch-console/internal/model"
	"docsearch-console/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type UserRepository struct {
	cache *cache.Cache
}

var _ contract.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	u := *user
	if err := r.cache.Add(strings.ToLower(user.Username), &u, cache.NoExpiration); err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if x, found := r.cache.Get(strings.ToLower(username)); found {
		u := *x.(*model.User)
		return &u, nil
	}
	return nil, contract.ErrRecordNotFound
}
