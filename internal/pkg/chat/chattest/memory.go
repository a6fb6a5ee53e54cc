// Package chattest provides in-memory stores for tests of the chat packages.
package chattest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

// ErrInjected is returned by stores whose Fail field is set.
var ErrInjected = errors.New("chattest: injected failure")

// ChatStore implements the chat repository port in memory.
type ChatStore struct {
	mu       sync.Mutex
	groups   map[string]chat.Group
	messages map[string]chat.Message
	order    []string

	// Fail makes every call return ErrInjected.
	Fail bool
}

func NewChatStore() *ChatStore {
	return &ChatStore{groups: map[string]chat.Group{}, messages: map[string]chat.Message{}}
}

func (s *ChatStore) err() error {
	if s.Fail {
		return ErrInjected
	}
	return nil
}

func (s *ChatStore) CreateGroup(_ context.Context, g chat.Group) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	s.groups[g.ID] = g
	return g.ID, nil
}

func (s *ChatStore) GetGroup(_ context.Context, groupID string) (*chat.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}
	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, chat.ErrNotFound)
	}
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &g, nil
}

func (s *ChatStore) ListGroupsForUser(_ context.Context, userID string) ([]chat.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}
	var out []chat.Group
	for _, g := range s.groups {
		if g.IsMember(userID) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *ChatStore) ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	groups, err := s.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (s *ChatStore) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}
	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("group %s: %w", groupID, chat.ErrNotFound)
	}
	for id, m := range s.messages {
		if m.GroupID == groupID {
			delete(s.messages, id)
		}
	}
	delete(s.groups, groupID)
	return nil
}

func (s *ChatStore) SaveMessage(_ context.Context, m chat.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.messages[m.ID] = m
	s.order = append(s.order, m.ID)
	return m.ID, nil
}

func (s *ChatStore) GetMessage(_ context.Context, messageID string) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}
	m, ok := s.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	return &m, nil
}

func (s *ChatStore) UpdateMessage(_ context.Context, m chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}
	if _, ok := s.messages[m.ID]; !ok {
		return fmt.Errorf("message %s: %w", m.ID, chat.ErrNotFound)
	}
	s.messages[m.ID] = m
	return nil
}

func (s *ChatStore) DeleteMessage(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return err
	}
	if _, ok := s.messages[messageID]; !ok {
		return fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	delete(s.messages, messageID)
	return nil
}

func (s *ChatStore) ListDirectMessages(_ context.Context, userA, userB string) ([]chat.Message, error) {
	want := chat.DirectConversation(userA, userB)
	return s.list(func(m chat.Message) bool { return !m.IsGroup() && m.Conversation() == want })
}

func (s *ChatStore) ListGroupMessages(_ context.Context, groupID string) ([]chat.Message, error) {
	return s.list(func(m chat.Message) bool { return m.GroupID == groupID })
}

func (s *ChatStore) list(match func(chat.Message) bool) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(); err != nil {
		return nil, err
	}
	var out []chat.Message
	for _, id := range s.order {
		m, ok := s.messages[id]
		if ok && match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Messages returns every stored message in insertion order.
func (s *ChatStore) Messages() []chat.Message {
	out, _ := s.list(func(chat.Message) bool { return true })
	return out
}

// UserStore implements the user repository port in memory.
type UserStore struct {
	mu    sync.Mutex
	users map[string]chat.User
	subs  map[string]chat.PushSubscription

	Fail bool
}

func NewUserStore(users ...chat.User) *UserStore {
	s := &UserStore{users: map[string]chat.User{}, subs: map[string]chat.PushSubscription{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Add stores u, generating an id when empty, and returns it.
func (s *UserStore) Add(u chat.User) chat.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
	return u
}

func (s *UserStore) FindByID(_ context.Context, id string) (*chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, chat.ErrNotFound)
	}
	return &u, nil
}

func (s *UserStore) ListUsersExcept(_ context.Context, excludeID string) ([]chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	var out []chat.User
	for id, u := range s.users {
		if id != excludeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *UserStore) GetPushSubscription(_ context.Context, userID string) (*chat.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	sub, ok := s.subs[userID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (s *UserStore) SavePushSubscription(_ context.Context, userID string, sub chat.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrInjected
	}
	s.subs[userID] = sub
	return nil
}
