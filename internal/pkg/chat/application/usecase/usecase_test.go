package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/chattest"
)

type fixture struct {
	repo  *chattest.ChatStore
	users *chattest.UserStore
	alice chat.User
	bob   chat.User
	carol chat.User
}

func newFixture() *fixture {
	f := &fixture{repo: chattest.NewChatStore(), users: chattest.NewUserStore()}
	f.alice = f.users.Add(chat.User{Username: "alice", Avatar: "/a.png"})
	f.bob = f.users.Add(chat.User{Username: "bob"})
	f.carol = f.users.Add(chat.User{Username: "carol"})
	return f
}

func (f *fixture) group(t *testing.T, members ...string) *chat.Group {
	t.Helper()
	g, err := NewCreateGroupUseCase(f.repo, f.users).Execute(context.Background(), CreateGroupInput{
		Name: "team", CreatorID: f.alice.ID, MemberIDs: members,
	})
	require.NoError(t, err)
	return g
}

func TestSendDirectMessage(t *testing.T) {
	f := newFixture()
	uc := NewSendDirectMessageUseCase(f.repo, f.users)
	ctx := context.Background()

	msg, err := uc.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, chat.MessageTypeText, msg.Type)

	reply, err := uc.Execute(ctx, SendDirectMessageInput{SenderID: f.bob.ID, ReceiverID: f.alice.ID, Content: "yo", ReplyToID: msg.ID})
	require.NoError(t, err)
	assert.Equal(t, msg.ID, reply.ReplyToID)

	_, err = uc.Execute(ctx, SendDirectMessageInput{SenderID: f.carol.ID, ReceiverID: f.bob.ID, Content: "x", ReplyToID: msg.ID})
	assert.ErrorIs(t, err, chat.ErrInvalidReply)

	_, err = uc.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "x", ReplyToID: "missing"})
	assert.ErrorIs(t, err, chat.ErrInvalidReply)

	_, err = uc.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: "nobody", Content: "x"})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = uc.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "  "})
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)

	_, err = uc.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "x", Type: "video"})
	assert.ErrorIs(t, err, chat.ErrInvalidType)

	assert.Len(t, f.repo.Messages(), 2)
}

func TestSendDirectMessage_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.Fail = true

	_, err := NewSendDirectMessageUseCase(f.repo, f.users).Execute(context.Background(),
		SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "hi"})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSendGroupMessage(t *testing.T) {
	f := newFixture()
	g := f.group(t, f.bob.ID)
	uc := NewSendGroupMessageUseCase(f.repo)
	ctx := context.Background()

	msg, group, err := uc.Execute(ctx, SendGroupMessageInput{SenderID: f.bob.ID, GroupID: g.ID, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, g.ID, msg.GroupID)
	assert.Equal(t, g.MemberIDs, group.MemberIDs)

	_, _, err = uc.Execute(ctx, SendGroupMessageInput{SenderID: f.carol.ID, GroupID: g.ID, Content: "let me in"})
	assert.ErrorIs(t, err, chat.ErrNotAuthorized)

	_, _, err = uc.Execute(ctx, SendGroupMessageInput{SenderID: f.bob.ID, GroupID: "gone", Content: "x"})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	direct, err := NewSendDirectMessageUseCase(f.repo, f.users).Execute(ctx,
		SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "dm"})
	require.NoError(t, err)
	_, _, err = uc.Execute(ctx, SendGroupMessageInput{SenderID: f.alice.ID, GroupID: g.ID, Content: "x", ReplyToID: direct.ID})
	assert.ErrorIs(t, err, chat.ErrInvalidReply)
}

func TestEditMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msg, err := NewSendDirectMessageUseCase(f.repo, f.users).Execute(ctx,
		SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "hi"})
	require.NoError(t, err)

	uc := NewEditMessageUseCase(f.repo)

	_, err = uc.Execute(ctx, EditMessageInput{MessageID: msg.ID, ActorID: f.bob.ID, Content: "hacked"})
	assert.ErrorIs(t, err, chat.ErrNotAuthorized)

	edited, err := uc.Execute(ctx, EditMessageInput{MessageID: msg.ID, ActorID: f.alice.ID, Content: "hello"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)

	stored, err := f.repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
	assert.True(t, stored.IsEdited)

	_, err = uc.Execute(ctx, EditMessageInput{MessageID: "missing", ActorID: f.alice.ID, Content: "x"})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msg, err := NewSendDirectMessageUseCase(f.repo, f.users).Execute(ctx,
		SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "hi"})
	require.NoError(t, err)

	uc := NewDeleteMessageUseCase(f.repo)

	_, err = uc.Execute(ctx, DeleteMessageInput{MessageID: msg.ID, ActorID: f.bob.ID})
	assert.ErrorIs(t, err, chat.ErrNotAuthorized)
	assert.Len(t, f.repo.Messages(), 1)

	prior, err := uc.Execute(ctx, DeleteMessageInput{MessageID: msg.ID, ActorID: f.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, prior.ReceiverID)
	assert.Empty(t, f.repo.Messages())

	_, err = uc.Execute(ctx, DeleteMessageInput{MessageID: msg.ID, ActorID: f.alice.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestCreateGroup(t *testing.T) {
	f := newFixture()
	uc := NewCreateGroupUseCase(f.repo, f.users)
	ctx := context.Background()

	g, err := uc.Execute(ctx, CreateGroupInput{Name: "team", CreatorID: f.alice.ID, MemberIDs: []string{f.bob.ID, f.bob.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID}, g.MemberIDs)
	assert.Equal(t, f.alice.ID, g.AdminID)

	_, err = uc.Execute(ctx, CreateGroupInput{Name: "team", CreatorID: f.alice.ID, MemberIDs: []string{"ghost"}})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = uc.Execute(ctx, CreateGroupInput{Name: "solo", CreatorID: f.alice.ID})
	assert.ErrorIs(t, err, chat.ErrGroupTooSmall)
}

func TestDeleteGroup(t *testing.T) {
	f := newFixture()
	g := f.group(t, f.bob.ID)
	ctx := context.Background()
	_, _, err := NewSendGroupMessageUseCase(f.repo).Execute(ctx, SendGroupMessageInput{SenderID: f.bob.ID, GroupID: g.ID, Content: "hi"})
	require.NoError(t, err)

	uc := NewDeleteGroupUseCase(f.repo)

	_, err = uc.Execute(ctx, DeleteGroupInput{GroupID: g.ID, ActorID: f.bob.ID})
	assert.ErrorIs(t, err, chat.ErrNotAuthorized)

	deleted, err := uc.Execute(ctx, DeleteGroupInput{GroupID: g.ID, ActorID: f.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, g.ID, deleted.ID)
	assert.Empty(t, f.repo.Messages())

	_, err = uc.Execute(ctx, DeleteGroupInput{GroupID: g.ID, ActorID: f.alice.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestListGroupsAndRooms(t *testing.T) {
	f := newFixture()
	g := f.group(t, f.bob.ID)
	ctx := context.Background()

	groups, err := NewListGroupsUseCase(f.repo).Execute(ctx, ListGroupsInput{UserID: f.bob.ID})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)

	rooms, err := NewResolveRoomsUseCase(f.repo).Execute(ctx, ResolveRoomsInput{UserID: f.carol.ID})
	require.NoError(t, err)
	assert.Empty(t, rooms)

	rooms, err = NewResolveRoomsUseCase(f.repo).Execute(ctx, ResolveRoomsInput{UserID: f.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, rooms)

	f.repo.Fail = true
	_, err = NewResolveRoomsUseCase(f.repo).Execute(ctx, ResolveRoomsInput{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestListUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	users, err := NewListUsersUseCase(f.users).Execute(ctx, ListUsersInput{UserID: f.bob.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "carol", users[1].Username)

	_, err = NewListUsersUseCase(f.users).Execute(ctx, ListUsersInput{})
	assert.ErrorIs(t, err, chat.ErrMalformed)

	f.users.Fail = true
	_, err = NewListUsersUseCase(f.users).Execute(ctx, ListUsersInput{UserID: f.bob.ID})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestHistory(t *testing.T) {
	f := newFixture()
	g := f.group(t, f.bob.ID)
	ctx := context.Background()
	send := NewSendDirectMessageUseCase(f.repo, f.users)

	for _, in := range []SendDirectMessageInput{
		{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "1"},
		{SenderID: f.bob.ID, ReceiverID: f.alice.ID, Content: "2"},
		{SenderID: f.alice.ID, ReceiverID: f.carol.ID, Content: "other"},
	} {
		_, err := send.Execute(ctx, in)
		require.NoError(t, err)
	}

	msgs, err := NewGetDirectMessagesUseCase(f.repo).Execute(ctx, GetDirectMessagesInput{UserID: f.bob.ID, PeerID: f.alice.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Content)
	assert.Equal(t, "2", msgs[1].Content)

	_, err = NewGetGroupMessagesUseCase(f.repo).Execute(ctx, GetGroupMessagesInput{GroupID: g.ID, UserID: f.carol.ID})
	assert.ErrorIs(t, err, chat.ErrNotAuthorized)

	groupMsgs, err := NewGetGroupMessagesUseCase(f.repo).Execute(ctx, GetGroupMessagesInput{GroupID: g.ID, UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Empty(t, groupMsgs)
}

func TestSubscribePush(t *testing.T) {
	f := newFixture()
	uc := NewSubscribePushUseCase(f.users)
	ctx := context.Background()

	err := uc.Execute(ctx, SubscribePushInput{UserID: f.alice.ID, Subscription: chat.PushSubscription{Endpoint: "https://push"}})
	assert.ErrorIs(t, err, chat.ErrMalformed)

	sub := chat.PushSubscription{Endpoint: "https://push", Keys: chat.PushKeys{P256dh: "p", Auth: "a"}}
	require.NoError(t, uc.Execute(ctx, SubscribePushInput{UserID: f.alice.ID, Subscription: sub}))

	got, err := f.users.GetPushSubscription(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &sub, got)
}

func TestHydrateMessages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	send := NewSendDirectMessageUseCase(f.repo, f.users)

	first, err := send.Execute(ctx, SendDirectMessageInput{SenderID: f.alice.ID, ReceiverID: f.bob.ID, Content: "hi"})
	require.NoError(t, err)
	second, err := send.Execute(ctx, SendDirectMessageInput{SenderID: f.bob.ID, ReceiverID: f.alice.ID, Content: "yo", ReplyToID: first.ID})
	require.NoError(t, err)

	uc := NewHydrateMessagesUseCase(f.repo, f.users)

	view, err := uc.ExecuteOne(ctx, *second)
	require.NoError(t, err)
	assert.Equal(t, f.bob.Summary(), view.Sender)
	require.NotNil(t, view.ReplyingTo)
	assert.Equal(t, first.ID, view.ReplyingTo.ID)
	assert.Equal(t, "alice", view.ReplyingTo.Sender.Username)

	require.NoError(t, f.repo.DeleteMessage(ctx, first.ID))
	view, err = uc.ExecuteOne(ctx, *second)
	require.NoError(t, err)
	assert.Nil(t, view.ReplyingTo)

	orphan := chat.Message{ID: "m", SenderID: "ghost", ReceiverID: f.bob.ID, Content: "boo"}
	view, err = uc.ExecuteOne(ctx, orphan)
	require.NoError(t, err)
	assert.Equal(t, chat.UserSummary{ID: "ghost"}, view.Sender)
}
