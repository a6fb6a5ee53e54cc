package usecase

import (
	"context"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

type DeleteGroupInput struct {
	GroupID string
	ActorID string
}

// DeleteGroupUseCase removes a group and its messages. Only the admin may.
type DeleteGroupUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteGroupUseCase(repo repository.ChatRepository) *DeleteGroupUseCase {
	return &DeleteGroupUseCase{Repo: repo}
}

func (uc *DeleteGroupUseCase) Execute(ctx context.Context, in DeleteGroupInput) (*chat.Group, error) {
	if in.GroupID == "" {
		return nil, required("groupId")
	}

	group, err := uc.Repo.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !group.IsAdmin(in.ActorID) {
		return nil, chat.ErrNotAuthorized
	}
	if err := uc.Repo.DeleteGroup(ctx, in.GroupID); err != nil {
		return nil, storeErr(err)
	}
	return group, nil
}
