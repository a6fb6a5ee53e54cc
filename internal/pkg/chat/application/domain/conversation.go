package chat

// ConversationKind distinguishes direct pairs from groups.
type ConversationKind int8

const (
	ConversationDirect ConversationKind = iota + 1
	ConversationGroup
)

// Conversation identifies a direct pair or a group. Direct pairs are implicit:
// they are never persisted and are normalized so that (a, b) == (b, a).
type Conversation struct {
	Kind    ConversationKind
	UserA   string
	UserB   string
	GroupID string
}

// DirectConversation returns the normalized conversation between two users.
func DirectConversation(a, b string) Conversation {
	if b < a {
		a, b = b, a
	}
	return Conversation{Kind: ConversationDirect, UserA: a, UserB: b}
}

// GroupConversation returns the conversation of a group.
func GroupConversation(groupID string) Conversation {
	return Conversation{Kind: ConversationGroup, GroupID: groupID}
}

// Key is a stable string identifying the conversation.
func (c Conversation) Key() string {
	if c.Kind == ConversationGroup {
		return "group:" + c.GroupID
	}
	return "dm:" + c.UserA + ":" + c.UserB
}
