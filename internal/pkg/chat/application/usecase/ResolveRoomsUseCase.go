package usecase

import (
	"context"
	"fmt"

	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

// ResolveRoomsInput identifies the user whose connection is being set up.
type ResolveRoomsInput struct {
	UserID string
}

// ResolveRoomsUseCase returns the rooms (group ids) a new connection subscribes to.
type ResolveRoomsUseCase struct {
	Repo repository.ChatRepository
}

func NewResolveRoomsUseCase(repo repository.ChatRepository) *ResolveRoomsUseCase {
	return &ResolveRoomsUseCase{Repo: repo}
}

func (uc *ResolveRoomsUseCase) Execute(ctx context.Context, in ResolveRoomsInput) ([]string, error) {
	if in.UserID == "" {
		return nil, required("userId")
	}

	ids, err := uc.Repo.ListGroupIDsForUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
