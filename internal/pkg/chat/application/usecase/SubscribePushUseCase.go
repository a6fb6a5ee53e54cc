package usecase

import (
	"context"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	userport "go-chatline/internal/repository/port"
)

type SubscribePushInput struct {
	UserID       string
	Subscription chat.PushSubscription
}

// SubscribePushUseCase stores the user's push endpoint, replacing any previous one
type SubscribePushUseCase struct {
	Users userport.UserRepository
}

func NewSubscribePushUseCase(users userport.UserRepository) *SubscribePushUseCase {
	return &SubscribePushUseCase{Users: users}
}

func (uc *SubscribePushUseCase) Execute(ctx context.Context, in SubscribePushInput) error {
	if in.UserID == "" {
		return required("userId")
	}
	if !in.Subscription.Valid() {
		return required("endpoint, keys.p256dh and keys.auth")
	}
	if err := uc.Users.SavePushSubscription(ctx, in.UserID, in.Subscription); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
