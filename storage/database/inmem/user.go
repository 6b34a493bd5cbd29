package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/solarsys/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.rows {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, usr)
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	if filter.ID == "" && filter.Email == "" {
		return user.User{}, user.ErrNotFound
	}

	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, u := range repo.db.rows {
		if (filter.ID == "" || u.ID == filter.ID) && (filter.Email == "" || u.Email == filter.Email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.rows))
	for _, u := range repo.db.rows {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, u.ID) {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, u := range repo.db.rows {
		if u.ID == usr.ID {
			repo.db.rows[i] = usr
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
