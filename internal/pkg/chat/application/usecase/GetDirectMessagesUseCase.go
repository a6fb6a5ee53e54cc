package usecase

import (
	"context"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// GetDirectMessagesInput names the two sides of a direct conversation
type GetDirectMessagesInput struct {
	UserID string
	PeerID string
}

// GetDirectMessagesUseCase fetches the messages exchanged between two users
type GetDirectMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetDirectMessagesUseCase(repo repository.ChatRepository) *GetDirectMessagesUseCase {
	return &GetDirectMessagesUseCase{Repo: repo}
}

// Execute returns messages in either direction, oldest first
func (uc *GetDirectMessagesUseCase) Execute(ctx context.Context, in GetDirectMessagesInput) ([]chat.Message, error) {
	if in.UserID == "" || in.PeerID == "" {
		return nil, required("receiverId")
	}

	msgs, err := uc.Repo.ListDirectMessages(ctx, in.UserID, in.PeerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
