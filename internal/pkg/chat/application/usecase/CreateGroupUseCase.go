package usecase

import (
	"context"
	"fmt"
	"time"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// CreateGroupInput carries the required data to open a new group
// Note: variables with multiple items use plural naming per guideline
type CreateGroupInput struct {
	Name      string
	CreatorID string
	MemberIDs []string
}

// CreateGroupUseCase handles creation of a new group and its members
// Hexagonal: depends on repository ports only
// One class per use case (own file)
type CreateGroupUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewCreateGroupUseCase(repo repository.ChatRepository, users userport.UserRepository) *CreateGroupUseCase {
	return &CreateGroupUseCase{Repo: repo, Users: users}
}

// Execute persists the group. The creator becomes admin and is always a member;
// every other member must exist.
func (uc *CreateGroupUseCase) Execute(ctx context.Context, in CreateGroupInput) (*chat.Group, error) {
	group, err := chat.NewGroup(in.Name, in.CreatorID, in.MemberIDs, time.Now())
	if err != nil {
		return nil, err
	}

	for _, id := range group.MemberIDs {
		if id == group.AdminID {
			continue
		}
		if _, err := uc.Users.FindByID(ctx, id); err != nil {
			return nil, storeErr(err)
		}
	}

	id, err := uc.Repo.CreateGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	group.ID = id
	return &group, nil
}
