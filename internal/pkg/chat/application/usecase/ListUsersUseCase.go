package usecase

import (
	"context"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	userport "go-chatline/internal/repository/port"
)

// ListUsersInput identifies the caller, who is left out of the listing.
type ListUsersInput struct {
	UserID string
}

// ListUsersUseCase returns the contacts shown next to the presence set.
type ListUsersUseCase struct {
	Users userport.UserRepository
}

func NewListUsersUseCase(users userport.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{Users: users}
}

func (uc *ListUsersUseCase) Execute(ctx context.Context, in ListUsersInput) ([]chat.User, error) {
	if in.UserID == "" {
		return nil, required("userId")
	}

	users, err := uc.Users.ListUsersExcept(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}
