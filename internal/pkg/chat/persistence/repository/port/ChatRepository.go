package repository

import (
	"context"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for groups and messages.
// Lookups of absent rows return an error wrapping chat.ErrNotFound.
type ChatRepository interface {
	CreateGroup(ctx context.Context, g chat.Group) (string, error)
	GetGroup(ctx context.Context, groupID string) (*chat.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]chat.Group, error)
	ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error)
	// DeleteGroup removes the group's messages first, then the group.
	DeleteGroup(ctx context.Context, groupID string) error

	SaveMessage(ctx context.Context, m chat.Message) (string, error)
	GetMessage(ctx context.Context, messageID string) (*chat.Message, error)
	UpdateMessage(ctx context.Context, m chat.Message) error
	DeleteMessage(ctx context.Context, messageID string) error
	// ListDirectMessages returns the messages between two users in either direction, oldest first.
	ListDirectMessages(ctx context.Context, userA, userB string) ([]chat.Message, error)
	// ListGroupMessages returns the group's messages, oldest first.
	ListGroupMessages(ctx context.Context, groupID string) ([]chat.Message, error)
}
