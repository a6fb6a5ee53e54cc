package usecase

import (
	"context"
	"fmt"
	"time"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// SendGroupMessageInput carries the data needed to post into a group
type SendGroupMessageInput struct {
	SenderID  string
	GroupID   string
	Content   string
	Type      chat.MessageType
	ReplyToID string
}

// SendGroupMessageUseCase validates and persists a group message
type SendGroupMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewSendGroupMessageUseCase(repo repository.ChatRepository) *SendGroupMessageUseCase {
	return &SendGroupMessageUseCase{Repo: repo}
}

// Execute persists the message and returns it together with the group so the
// caller can resolve offline members. Non-members get chat.ErrNotAuthorized.
func (uc *SendGroupMessageUseCase) Execute(ctx context.Context, in SendGroupMessageInput) (*chat.Message, *chat.Group, error) {
	if in.SenderID == "" || in.GroupID == "" {
		return nil, nil, required("senderId and groupId")
	}

	msg, err := chat.NewMessage(chat.Message{
		SenderID:  in.SenderID,
		GroupID:   in.GroupID,
		Content:   in.Content,
		Type:      in.Type,
		ReplyToID: in.ReplyToID,
	}, time.Now())
	if err != nil {
		return nil, nil, err
	}

	group, err := uc.Repo.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if !group.IsMember(in.SenderID) {
		return nil, nil, chat.ErrNotAuthorized
	}
	if err := checkReply(ctx, uc.Repo, msg); err != nil {
		return nil, nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	return &msg, group, nil
}
