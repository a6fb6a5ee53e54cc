package usecase

import (
	"context"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// ListGroupsInput wraps the user whose groups are listed.
type ListGroupsInput struct {
	UserID string
}

// ListGroupsUseCase returns the groups containing the user, most recently updated first.
type ListGroupsUseCase struct {
	Repo repository.ChatRepository
}

func NewListGroupsUseCase(repo repository.ChatRepository) *ListGroupsUseCase {
	return &ListGroupsUseCase{Repo: repo}
}

func (uc *ListGroupsUseCase) Execute(ctx context.Context, in ListGroupsInput) ([]chat.Group, error) {
	if in.UserID == "" {
		return nil, required("userId")
	}

	groups, err := uc.Repo.ListGroupsForUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return groups, nil
}
