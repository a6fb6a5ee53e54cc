package chat

import "time"

// MessageView is a message hydrated with its sender and replied-to message,
// the shape clients receive over the socket and the history endpoints.
type MessageView struct {
	ID         string        `json:"id"`
	Sender     UserSummary   `json:"sender"`
	ReceiverID string        `json:"receiver,omitempty"`
	GroupID    string        `json:"group,omitempty"`
	Content    string        `json:"content"`
	Type       MessageType   `json:"type"`
	IsEdited   bool          `json:"isEdited"`
	ReplyingTo *ReplySummary `json:"replyingTo"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ReplySummary is the replied-to message embedded in a MessageView.
type ReplySummary struct {
	ID      string      `json:"id"`
	Sender  UserSummary `json:"sender"`
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
}

// NewMessageView builds the view of m. reply may be nil when m is not a reply
// or the replied-to message no longer exists.
func NewMessageView(m Message, sender UserSummary, reply *ReplySummary) MessageView {
	return MessageView{
		ID:         m.ID,
		Sender:     sender,
		ReceiverID: m.ReceiverID,
		GroupID:    m.GroupID,
		Content:    m.Content,
		Type:       m.Type,
		IsEdited:   m.IsEdited,
		ReplyingTo: reply,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
