package repository

import (
	"context"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

// UserRepository is the store contract for accounts and their push subscription.
// Missing rows surface as chat.ErrNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*chat.User, error)
	// ListUsersExcept returns every user but excludeID, ordered by username.
	ListUsersExcept(ctx context.Context, excludeID string) ([]chat.User, error)
	// GetPushSubscription returns nil, nil when the user has no subscription.
	GetPushSubscription(ctx context.Context, userID string) (*chat.PushSubscription, error)
	// SavePushSubscription replaces any previous subscription of the user.
	SavePushSubscription(ctx context.Context, userID string, sub chat.PushSubscription) error
}
