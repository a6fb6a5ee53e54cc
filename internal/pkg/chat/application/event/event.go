// Package event defines the frames exchanged over the chat socket.
//
// Every frame is a JSON object {"type": "...", "payload": {...}}. Inbound
// frames decode into one of a closed set of structs implementing Inbound;
// anything else is rejected with ErrMalformed before reaching the dispatcher.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

// ErrMalformed marks a frame that could not be decoded or lacks required fields.
var ErrMalformed = fmt.Errorf("event: %w", chat.ErrMalformed)

// Type names a frame.
type Type string

// Inbound frame types.
const (
	TypeSendMessage      Type = "sendMessage"
	TypeSendGroupMessage Type = "sendGroupMessage"
	TypeEditMessage      Type = "editMessage"
	TypeDeleteMessage    Type = "deleteMessage"
	TypeStartTyping      Type = "startTyping"
	TypeStopTyping       Type = "stopTyping"
	TypeStartTypingGroup Type = "startTypingGroup"
	TypeStopTypingGroup  Type = "stopTypingGroup"
)

// Outbound frame types.
const (
	TypeOnlineUsers     Type = "onlineUsers"
	TypeNewMessage      Type = "newMessage"
	TypeNewGroupMessage Type = "newGroupMessage"
	TypeMessageEdited   Type = "messageEdited"
	TypeMessageDeleted  Type = "messageDeleted"
	TypeTyping          Type = "typing"
	TypeTypingStopped   Type = "stopTyping"
	TypeGroupTyping     Type = "groupTyping"
	TypeGroupStopTyping Type = "groupStopTyping"
)

// Inbound is a decoded client frame.
type Inbound interface {
	Type() Type
	Validate() error
}

type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SendMessage is a direct message from the connection's user.
type SendMessage struct {
	ReceiverID  string           `json:"receiverId"`
	Content     string           `json:"content"`
	MessageType chat.MessageType `json:"type"`
	ReplyingTo  string           `json:"replyingTo,omitempty"`
}

func (SendMessage) Type() Type { return TypeSendMessage }

func (e SendMessage) Validate() error {
	if err := id("receiverId", e.ReceiverID); err != nil {
		return err
	}
	return content(e.Content, e.ReplyingTo)
}

// SendGroupMessage posts into a group the user belongs to.
type SendGroupMessage struct {
	GroupID     string           `json:"groupId"`
	Content     string           `json:"content"`
	MessageType chat.MessageType `json:"type"`
	ReplyingTo  string           `json:"replyingTo,omitempty"`
}

func (SendGroupMessage) Type() Type { return TypeSendGroupMessage }

func (e SendGroupMessage) Validate() error {
	if err := id("groupId", e.GroupID); err != nil {
		return err
	}
	return content(e.Content, e.ReplyingTo)
}

type EditMessage struct {
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
}

func (EditMessage) Type() Type { return TypeEditMessage }

func (e EditMessage) Validate() error {
	if err := id("messageId", e.MessageID); err != nil {
		return err
	}
	return content(e.NewContent, "")
}

type DeleteMessage struct {
	MessageID string `json:"messageId"`
}

func (DeleteMessage) Type() Type { return TypeDeleteMessage }

func (e DeleteMessage) Validate() error { return id("messageId", e.MessageID) }

// StartTyping and StopTyping signal typing in a direct conversation.
type StartTyping struct {
	ReceiverID string `json:"receiverId"`
}

func (StartTyping) Type() Type        { return TypeStartTyping }
func (e StartTyping) Validate() error { return id("receiverId", e.ReceiverID) }

type StopTyping struct {
	ReceiverID string `json:"receiverId"`
}

func (StopTyping) Type() Type        { return TypeStopTyping }
func (e StopTyping) Validate() error { return id("receiverId", e.ReceiverID) }

// StartTypingGroup and StopTypingGroup signal typing in a group.
type StartTypingGroup struct {
	GroupID string `json:"groupId"`
}

func (StartTypingGroup) Type() Type        { return TypeStartTypingGroup }
func (e StartTypingGroup) Validate() error { return id("groupId", e.GroupID) }

type StopTypingGroup struct {
	GroupID string `json:"groupId"`
}

func (StopTypingGroup) Type() Type        { return TypeStopTypingGroup }
func (e StopTypingGroup) Validate() error { return id("groupId", e.GroupID) }

// Decode parses and validates an inbound frame.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var ev Inbound
	switch env.Type {
	case TypeSendMessage:
		ev = &SendMessage{}
	case TypeSendGroupMessage:
		ev = &SendGroupMessage{}
	case TypeEditMessage:
		ev = &EditMessage{}
	case TypeDeleteMessage:
		ev = &DeleteMessage{}
	case TypeStartTyping:
		ev = &StartTyping{}
	case TypeStopTyping:
		ev = &StopTyping{}
	case TypeStartTypingGroup:
		ev = &StartTypingGroup{}
	case TypeStopTypingGroup:
		ev = &StopTypingGroup{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}

	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, fmt.Errorf("%w: %s: missing payload", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", env.Type, err)
	}
	return deref(ev), nil
}

// deref returns the value form so callers can type-switch on plain structs.
func deref(ev Inbound) Inbound {
	switch e := ev.(type) {
	case *SendMessage:
		return *e
	case *SendGroupMessage:
		return *e
	case *EditMessage:
		return *e
	case *DeleteMessage:
		return *e
	case *StartTyping:
		return *e
	case *StopTyping:
		return *e
	case *StartTypingGroup:
		return *e
	case *StopTypingGroup:
		return *e
	}
	return ev
}

func id(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is required", ErrMalformed, field)
	}
	if err := uuid.Validate(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return nil
}

func content(c, replyTo string) error {
	if strings.TrimSpace(c) == "" {
		return fmt.Errorf("%w: content is required", ErrMalformed)
	}
	if replyTo != "" {
		return id("replyingTo", replyTo)
	}
	return nil
}

// Encode renders an outbound frame.
func Encode(t Type, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: t, Payload: raw})
}

// OnlineUsers renders the presence frame. It matches the registry's
// presence encoder signature.
func OnlineUsers(userIDs []string) ([]byte, error) {
	if userIDs == nil {
		userIDs = []string{}
	}
	return Encode(TypeOnlineUsers, userIDs)
}

// MessageDeleted is the payload of a messageDeleted frame.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId,omitempty"`
}

// Typing is the payload of typing and stopTyping frames.
type Typing struct {
	SenderID string `json:"senderId"`
}

// GroupTyping is the payload of groupTyping and groupStopTyping frames.
type GroupTyping struct {
	GroupID  string `json:"groupId"`
	Username string `json:"username"`
}

// IsMalformed reports whether err came from frame decoding.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
