package chat

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrNotAuthorized  = errors.New("chat: actor is not allowed to perform this action")
	ErrNotFound       = errors.New("chat: not found")
	ErrMalformed      = errors.New("chat: malformed input")
	ErrEmptyMessage   = errors.New("chat: empty message content")
	ErrInvalidType    = errors.New("chat: unknown message type")
	ErrInvalidReply   = errors.New("chat: reply must reference a message in the same conversation")
	ErrGroupTooSmall  = errors.New("chat: a group needs at least two members")
	ErrGroupNameEmpty = errors.New("chat: group name is required")
)

// MessageType tags the content of a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeImage
}

// Group is a persisted multi-member room. The admin is always a member.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin"`
	MemberIDs []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGroup validates and normalizes a group request: the creator becomes the admin
// and is always a member, and the member set is de-duplicated.
func NewGroup(name string, creatorID string, memberIDs []string, now time.Time) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrGroupNameEmpty
	}
	if creatorID == "" {
		return Group{}, ErrMalformed
	}

	seen := map[string]struct{}{creatorID: {}}
	members := []string{creatorID}
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) < 2 {
		return Group{}, ErrGroupTooSmall
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return Group{
		Name:      name,
		AdminID:   creatorID,
		MemberIDs: members,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsMember tells whether userID belongs to the group.
func (g Group) IsMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAdmin tells whether userID administers the group.
func (g Group) IsAdmin(userID string) bool {
	return userID != "" && g.AdminID == userID
}

// Message is either a direct message (ReceiverID set) or a group message (GroupID set).
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	GroupID    string
	Content    string
	Type       MessageType
	IsEdited   bool
	ReplyToID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsGroup reports whether the message belongs to a group conversation.
func (m Message) IsGroup() bool {
	return m.GroupID != ""
}

// Conversation returns the conversation the message lives in.
func (m Message) Conversation() Conversation {
	if m.IsGroup() {
		return GroupConversation(m.GroupID)
	}
	return DirectConversation(m.SenderID, m.ReceiverID)
}

// CanModify reports whether actorID may edit or delete the message.
// Only the original sender may.
func (m Message) CanModify(actorID string) bool {
	return actorID != "" && m.SenderID == actorID
}

// Edit replaces the content and marks the message as edited.
func (m Message) Edit(actorID string, content string, now time.Time) (Message, error) {
	if !m.CanModify(actorID) {
		return Message{}, ErrNotAuthorized
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyMessage
	}
	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = now.UTC()
	return m, nil
}

// NewMessage validates a message about to be persisted. Exactly one of
// ReceiverID or GroupID must be set; a missing type defaults to text.
func NewMessage(m Message, now time.Time) (Message, error) {
	if m.SenderID == "" {
		return Message{}, ErrMalformed
	}
	if (m.ReceiverID == "") == (m.GroupID == "") {
		return Message{}, ErrMalformed
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if !m.Type.Valid() {
		return Message{}, ErrInvalidType
	}
	if strings.TrimSpace(m.Content) == "" {
		return Message{}, ErrEmptyMessage
	}
	if now.IsZero() {
		now = time.Now()
	}
	m.ID = ""
	m.IsEdited = false
	m.CreatedAt = now.UTC()
	m.UpdatedAt = m.CreatedAt
	return m, nil
}

// ValidateReply checks that reply lives in the same conversation as m.
func ValidateReply(m Message, reply Message) error {
	if m.Conversation() != reply.Conversation() {
		return ErrInvalidReply
	}
	return nil
}

// SortedIDs returns a sorted copy of ids.
func SortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
