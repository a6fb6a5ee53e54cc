package usecase

import (
	"context"
	"fmt"
	"time"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

type EditMessageInput struct {
	MessageID string
	ActorID   string
	Content   string
}

// EditMessageUseCase replaces the content of a message on behalf of its sender
type EditMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewEditMessageUseCase(repo repository.ChatRepository) *EditMessageUseCase {
	return &EditMessageUseCase{Repo: repo}
}

// Execute returns chat.ErrNotAuthorized, without touching the store, when the
// actor is not the sender.
func (uc *EditMessageUseCase) Execute(ctx context.Context, in EditMessageInput) (*chat.Message, error) {
	if in.MessageID == "" || in.ActorID == "" {
		return nil, required("messageId")
	}

	msg, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, storeErr(err)
	}

	edited, err := msg.Edit(in.ActorID, in.Content, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.Repo.UpdateMessage(ctx, edited); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &edited, nil
}
