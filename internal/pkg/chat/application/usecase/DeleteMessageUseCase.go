package usecase

import (
	"context"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

type DeleteMessageInput struct {
	MessageID string
	ActorID   string
}

// DeleteMessageUseCase removes a message on behalf of its sender
type DeleteMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteMessageUseCase(repo repository.ChatRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

// Execute returns the message as it was before deletion so the caller can
// address the same targets it was delivered to.
func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) (*chat.Message, error) {
	if in.MessageID == "" || in.ActorID == "" {
		return nil, required("messageId")
	}

	msg, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !msg.CanModify(in.ActorID) {
		return nil, chat.ErrNotAuthorized
	}
	if err := uc.Repo.DeleteMessage(ctx, in.MessageID); err != nil {
		return nil, storeErr(err)
	}
	return msg, nil
}
