//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"log/slog"

	"github.com/samber/lo"

	"talkboard/contract"
	"talkboard/domain"
	"talkboard/errors"
)

// IUserRepository is the read surface the core needs on the user
// collection. Account management itself lives outside this process.
type IUserRepository interface {
	Put(u domain.User) error
	Get(id string) (domain.User, error)
	Exists(id string) bool
}

type UserRepository struct {
	records *Collection[domain.User]
}

func NewUserRepository(store contract.Store, log *slog.Logger) *UserRepository {
	return &UserRepository{
		records: NewCollection[domain.User](domain.CollectionUsers, store, log),
	}
}

func (r *UserRepository) Put(u domain.User) error {
	return r.records.Update(func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].ID == u.ID {
				users[i] = u
				return users, nil
			}
		}
		return append(users, u), nil
	})
}

func (r *UserRepository) Get(id string) (domain.User, error) {
	u, found := lo.Find(r.records.Load(), func(u domain.User) bool {
		return u.ID == id
	})
	if !found {
		return domain.User{}, errors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) Exists(id string) bool {
	_, err := r.Get(id)
	return err == nil
}
