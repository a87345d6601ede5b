package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"talkboard/domain"
)

func dm(id, sender, recipient, content string) domain.DirectMessage {
	return domain.DirectMessage{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
}

func Test_DirectRepository_ConversationIsBidirectional(t *testing.T) {
	req := require.New(t)
	repo := NewDirectRepository(newDiskStore(t), slog.Default())
	req.NoError(repo.Append(dm("d1", "alice", "bob", "hello")))
	req.NoError(repo.Append(dm("d2", "bob", "alice", "hi there")))
	req.NoError(repo.Append(dm("d3", "alice", "clara", "unrelated")))

	conversation := repo.Conversation("alice", "bob")
	req.Len(conversation, 2)
	req.Equal("d1", conversation[0].ID)
	req.Equal("d2", conversation[1].ID)
}

func Test_DirectRepository_MarkReadOnlyFlipsOneDirection(t *testing.T) {
	req := require.New(t)
	repo := NewDirectRepository(newDiskStore(t), slog.Default())
	req.NoError(repo.Append(dm("d1", "alice", "bob", "hello")))
	req.NoError(repo.Append(dm("d2", "bob", "alice", "hi there")))

	// When bob reads his conversation with alice
	req.NoError(repo.MarkRead("bob", "alice"))

	conversation := repo.Conversation("alice", "bob")
	req.True(conversation[0].Read)
	// Bob's own message to alice stays unread on her side
	req.False(conversation[1].Read)
}
