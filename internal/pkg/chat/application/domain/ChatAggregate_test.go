package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroup(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		members []string
		want    []string
		err     error
	}{
		{name: "creator added when omitted", members: []string{"b", "c"}, want: []string{"a", "b", "c"}},
		{name: "duplicates removed", members: []string{"b", "a", "b", " c ", ""}, want: []string{"a", "b", "c"}},
		{name: "creator alone is too small", members: []string{"a", "a"}, err: ErrGroupTooSmall},
		{name: "empty request is too small", members: nil, err: ErrGroupTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGroup("team", "a", tt.members, now)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.MemberIDs)
			assert.Equal(t, "a", g.AdminID)
			assert.True(t, g.IsMember(g.AdminID))
			assert.Equal(t, now, g.CreatedAt)
		})
	}
}

func TestNewGroup_RequiresName(t *testing.T) {
	_, err := NewGroup("   ", "a", []string{"b"}, time.Now())
	assert.ErrorIs(t, err, ErrGroupNameEmpty)
}

func TestNewMessage(t *testing.T) {
	now := time.Now()

	m, err := NewMessage(Message{SenderID: "a", ReceiverID: "b", Content: "hi"}, now)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, m.Type)
	assert.False(t, m.IsEdited)
	assert.Equal(t, now.UTC(), m.CreatedAt)

	_, err = NewMessage(Message{SenderID: "a", ReceiverID: "b", GroupID: "g", Content: "hi"}, now)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewMessage(Message{SenderID: "a", Content: "hi"}, now)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewMessage(Message{SenderID: "a", GroupID: "g", Content: "  "}, now)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NewMessage(Message{SenderID: "a", GroupID: "g", Content: "x", Type: "video"}, now)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestMessage_Edit(t *testing.T) {
	m := Message{ID: "m1", SenderID: "a", ReceiverID: "b", Content: "old"}

	edited, err := m.Edit("a", "new", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "new", edited.Content)
	assert.True(t, edited.IsEdited)

	_, err = m.Edit("b", "new", time.Now())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = m.Edit("a", "", time.Now())
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestValidateReply(t *testing.T) {
	dm := Message{SenderID: "a", ReceiverID: "b"}

	assert.NoError(t, ValidateReply(dm, Message{SenderID: "b", ReceiverID: "a"}))
	assert.ErrorIs(t, ValidateReply(dm, Message{SenderID: "a", ReceiverID: "c"}), ErrInvalidReply)
	assert.ErrorIs(t, ValidateReply(dm, Message{SenderID: "a", GroupID: "g"}), ErrInvalidReply)

	grp := Message{SenderID: "a", GroupID: "g"}
	assert.NoError(t, ValidateReply(grp, Message{SenderID: "c", GroupID: "g"}))
	assert.ErrorIs(t, ValidateReply(grp, Message{SenderID: "c", GroupID: "h"}), ErrInvalidReply)
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, DirectConversation("b", "a").Key(), DirectConversation("a", "b").Key())
	assert.Equal(t, "dm:a:b", DirectConversation("b", "a").Key())
	assert.Equal(t, "group:g1", GroupConversation("g1").Key())
}
