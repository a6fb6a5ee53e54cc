package usecase

import (
	"context"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// GetGroupMessagesInput carries parameters to fetch the history of a group
type GetGroupMessagesInput struct {
	GroupID string
	UserID  string
}

// GetGroupMessagesUseCase fetches a group's messages for one of its members
type GetGroupMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetGroupMessagesUseCase(repo repository.ChatRepository) *GetGroupMessagesUseCase {
	return &GetGroupMessagesUseCase{Repo: repo}
}

// Execute returns messages oldest first
func (uc *GetGroupMessagesUseCase) Execute(ctx context.Context, in GetGroupMessagesInput) ([]chat.Message, error) {
	if in.GroupID == "" {
		return nil, required("groupId")
	}

	group, err := uc.Repo.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !group.IsMember(in.UserID) {
		return nil, chat.ErrNotAuthorized
	}

	msgs, err := uc.Repo.ListGroupMessages(ctx, in.GroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
