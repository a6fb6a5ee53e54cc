package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

// HydrateMessagesUseCase attaches the sender summary and the replied-to
// message (with its sender) to each message.
type HydrateMessagesUseCase struct {
	Repo  repository.ChatRepository
	Users userport.UserRepository
}

func NewHydrateMessagesUseCase(repo repository.ChatRepository, users userport.UserRepository) *HydrateMessagesUseCase {
	return &HydrateMessagesUseCase{Repo: repo, Users: users}
}

// Execute preserves input order. Senders that no longer exist are reduced to
// their id; replies that no longer exist are left empty.
func (uc *HydrateMessagesUseCase) Execute(ctx context.Context, msgs []chat.Message) ([]chat.MessageView, error) {
	senders := make(map[string]chat.UserSummary)
	summary := func(id string) (chat.UserSummary, error) {
		if s, ok := senders[id]; ok {
			return s, nil
		}
		u, err := uc.Users.FindByID(ctx, id)
		if errors.Is(err, chat.ErrNotFound) {
			s := chat.UserSummary{ID: id}
			senders[id] = s
			return s, nil
		}
		if err != nil {
			return chat.UserSummary{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		senders[id] = u.Summary()
		return senders[id], nil
	}

	byID := make(map[string]chat.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	views := make([]chat.MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender, err := summary(m.SenderID)
		if err != nil {
			return nil, err
		}

		var reply *chat.ReplySummary
		if m.ReplyToID != "" {
			orig, ok := byID[m.ReplyToID]
			if !ok {
				found, err := uc.Repo.GetMessage(ctx, m.ReplyToID)
				switch {
				case errors.Is(err, chat.ErrNotFound):
				case err != nil:
					return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
				default:
					orig, ok = *found, true
				}
			}
			if ok {
				replySender, err := summary(orig.SenderID)
				if err != nil {
					return nil, err
				}
				reply = &chat.ReplySummary{ID: orig.ID, Sender: replySender, Content: orig.Content, Type: orig.Type}
			}
		}

		views = append(views, chat.NewMessageView(m, sender, reply))
	}
	return views, nil
}

// ExecuteOne hydrates a single message.
func (uc *HydrateMessagesUseCase) ExecuteOne(ctx context.Context, m chat.Message) (chat.MessageView, error) {
	views, err := uc.Execute(ctx, []chat.Message{m})
	if err != nil {
		return chat.MessageView{}, err
	}
	return views[0], nil
}
