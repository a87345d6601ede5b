//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"log/slog"

	"github.com/samber/lo"

	"talkboard/contract"
	"talkboard/domain"
)

type IMessageRepository interface {
	Append(msg domain.GroupMessage) error
	ForGroup(groupID string) []domain.GroupMessage
	CountForGroup(groupID string) int
}

type MessageRepository struct {
	records *Collection[domain.GroupMessage]
}

func NewMessageRepository(store contract.Store, log *slog.Logger) *MessageRepository {
	return &MessageRepository{
		records: NewCollection[domain.GroupMessage](domain.CollectionMessages, store, log),
	}
}

func (r *MessageRepository) Append(msg domain.GroupMessage) error {
	return r.records.Update(func(msgs []domain.GroupMessage) ([]domain.GroupMessage, error) {
		return append(msgs, msg), nil
	})
}

func (r *MessageRepository) ForGroup(groupID string) []domain.GroupMessage {
	return lo.Filter(r.records.Load(), func(m domain.GroupMessage, _ int) bool {
		return m.GroupID == groupID
	})
}

// CountForGroup recomputes the group's message count from the collection.
// The count is derived, never stored, so it cannot drift from the records.
func (r *MessageRepository) CountForGroup(groupID string) int {
	return lo.CountBy(r.records.Load(), func(m domain.GroupMessage) bool {
		return m.GroupID == groupID
	})
}
