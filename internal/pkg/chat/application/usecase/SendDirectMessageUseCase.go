package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// SendDirectMessageInput carries the data needed to send a message to one user
type SendDirectMessageInput struct {
	SenderID   string
	ReceiverID string
	Content    string
	Type       chat.MessageType
	ReplyToID  string
}

// SendDirectMessageUseCase validates and persists a direct message
// Hexagonal: depends on repository ports, returns domain entity
type SendDirectMessageUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewSendDirectMessageUseCase(repo repository.ChatRepository, users userport.UserRepository) *SendDirectMessageUseCase {
	return &SendDirectMessageUseCase{Repo: repo, Users: users}
}

// Execute persists the message. The receiver must exist and a reply must
// reference a message of the same pair.
func (uc *SendDirectMessageUseCase) Execute(ctx context.Context, in SendDirectMessageInput) (*chat.Message, error) {
	if in.SenderID == "" || in.ReceiverID == "" {
		return nil, required("senderId and receiverId")
	}

	msg, err := chat.NewMessage(chat.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Type:       in.Type,
		ReplyToID:  in.ReplyToID,
	}, time.Now())
	if err != nil {
		return nil, err
	}

	if _, err := uc.Users.FindByID(ctx, in.ReceiverID); err != nil {
		return nil, storeErr(err)
	}
	if err := checkReply(ctx, uc.Repo, msg); err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	return &msg, nil
}

// checkReply verifies the replied-to message exists in the same conversation.
func checkReply(ctx context.Context, repo repository.ChatRepository, msg chat.Message) error {
	if msg.ReplyToID == "" {
		return nil
	}
	reply, err := repo.GetMessage(ctx, msg.ReplyToID)
	if errors.Is(err, chat.ErrNotFound) {
		return fmt.Errorf("%w: %v", chat.ErrInvalidReply, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return chat.ValidateReply(msg, *reply)
}
