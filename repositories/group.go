//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"log/slog"

	"github.com/samber/lo"

	"talkboard/contract"
	"talkboard/domain"
	"talkboard/errors"
)

type IGroupRepository interface {
	Create(g domain.Group) error
	Get(id string) (domain.Group, error)
	List() []domain.Group
	Join(groupID, userID string) error
	Leave(groupID, userID string) error
	IsMember(groupID, userID string) (bool, error)
}

type GroupRepository struct {
	records *Collection[domain.Group]
}

func NewGroupRepository(store contract.Store, log *slog.Logger) *GroupRepository {
	return &GroupRepository{
		records: NewCollection[domain.Group](domain.CollectionGroups, store, log),
	}
}

func (r *GroupRepository) Create(g domain.Group) error {
	return r.records.Update(func(groups []domain.Group) ([]domain.Group, error) {
		if _, found := lo.Find(groups, func(existing domain.Group) bool {
			return existing.ID == g.ID
		}); found {
			return groups, nil
		}
		return append(groups, g), nil
	})
}

// Get returns the group with its member count recomputed from the member
// set. The message count is derived at the API layer from the messages
// collection.
func (r *GroupRepository) Get(id string) (domain.Group, error) {
	g, found := lo.Find(r.records.Load(), func(g domain.Group) bool {
		return g.ID == id
	})
	if !found {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	g.MemberCount = len(g.Members)
	return g, nil
}

func (r *GroupRepository) List() []domain.Group {
	return lo.Map(r.records.Load(), func(g domain.Group, _ int) domain.Group {
		g.MemberCount = len(g.Members)
		return g
	})
}

// Join adds userID to the group's member set. Joining twice is a no-op:
// membership is a set, never a list with duplicates.
func (r *GroupRepository) Join(groupID, userID string) error {
	return r.mutate(groupID, func(g *domain.Group) {
		if !g.IsMember(userID) {
			g.Members = append(g.Members, userID)
		}
	})
}

func (r *GroupRepository) Leave(groupID, userID string) error {
	return r.mutate(groupID, func(g *domain.Group) {
		g.Members = lo.Without(g.Members, userID)
	})
}

func (r *GroupRepository) IsMember(groupID, userID string) (bool, error) {
	g, err := r.Get(groupID)
	if err != nil {
		return false, err
	}
	return g.IsMember(userID), nil
}

func (r *GroupRepository) mutate(groupID string, fn func(*domain.Group)) error {
	return r.records.Update(func(groups []domain.Group) ([]domain.Group, error) {
		for i := range groups {
			if groups[i].ID == groupID {
				fn(&groups[i])
				return groups, nil
			}
		}
		return nil, errors.ErrGroupNotFound
	})
}
