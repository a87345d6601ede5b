package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroup_IsMember(t *testing.T) {
	req := require.New(t)
	g := Group{Members: []string{"alice", "bob"}}

	req.True(g.IsMember("alice"))
	req.False(g.IsMember("carol"))
	req.False(Group{}.IsMember("alice"))
}

func TestAlertStatus_Terminal(t *testing.T) {
	req := require.New(t)

	req.False(AlertActive.Terminal())
	req.True(AlertResolved.Terminal())
	req.True(AlertCancelled.Terminal())
}

func TestGroupTopic(t *testing.T) {
	require.Equal(t, "group:42", GroupTopic("42"))
}
