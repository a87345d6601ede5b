package repositories

import (
	"log/slog"

	"github.com/samber/lo"

	"talkboard/contract"
	"talkboard/domain"
)

type IDirectRepository interface {
	Append(dm domain.DirectMessage) error
	Conversation(a, b string) []domain.DirectMessage
	MarkRead(recipientID, senderID string) error
}

type DirectRepository struct {
	records *Collection[domain.DirectMessage]
}

func NewDirectRepository(store contract.Store, log *slog.Logger) *DirectRepository {
	return &DirectRepository{
		records: NewCollection[domain.DirectMessage](domain.CollectionDirectMessages, store, log),
	}
}

func (r *DirectRepository) Append(dm domain.DirectMessage) error {
	return r.records.Update(func(dms []domain.DirectMessage) ([]domain.DirectMessage, error) {
		return append(dms, dm), nil
	})
}

// Conversation returns every message exchanged between a and b, in append
// order.
func (r *DirectRepository) Conversation(a, b string) []domain.DirectMessage {
	return lo.Filter(r.records.Load(), func(dm domain.DirectMessage, _ int) bool {
		return (dm.SenderID == a && dm.RecipientID == b) ||
			(dm.SenderID == b && dm.RecipientID == a)
	})
}

// MarkRead flips the read flag on every message senderID sent to
// recipientID. The read flag is the only mutable field of a direct message.
func (r *DirectRepository) MarkRead(recipientID, senderID string) error {
	return r.records.Update(func(dms []domain.DirectMessage) ([]domain.DirectMessage, error) {
		for i := range dms {
			if dms[i].RecipientID == recipientID && dms[i].SenderID == senderID {
				dms[i].Read = true
			}
		}
		return dms, nil
	})
}
