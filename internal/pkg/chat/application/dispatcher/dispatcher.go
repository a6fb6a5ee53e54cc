// Package dispatcher applies inbound socket events: it persists the change,
// resolves the target connections, delivers live and falls back to push
// notifications for offline recipients.
package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"go-chatline/internal/infrastructure/realtime"
	chat "go-chatline/internal/pkg/chat/application/domain"
	"go-chatline/internal/pkg/chat/application/event"
	"go-chatline/internal/pkg/chat/application/usecase"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
	userport "go-chatline/internal/repository/port"
)

const defaultTimeout = 10 * time.Second

// Directory resolves users and rooms to live connections.
type Directory interface {
	Lookup(userID string) []*realtime.Connection
	HasConnection(userID string) bool
	RoomConnections(roomID string) []*realtime.Connection
	InRoom(connID string, roomID string) bool
}

// Options wires a Dispatcher.
type Options struct {
	Directory Directory
	Chats     repository.ChatRepository
	Users     userport.UserRepository
	// Fallback may be nil, in which case offline recipients get nothing.
	Fallback *Fallback
	Log      zerolog.Logger
	// Timeout bounds each handler once it has started. Zero means 10s.
	Timeout time.Duration
}

// Dispatcher is safe for concurrent use. Events of one conversation are
// applied one at a time in the order Dispatch was called.
type Dispatcher struct {
	dir      Directory
	chats    repository.ChatRepository
	fallback *Fallback
	lanes    *sequencer
	log      zerolog.Logger
	timeout  time.Duration

	sendDirect *usecase.SendDirectMessageUseCase
	sendGroup  *usecase.SendGroupMessageUseCase
	edit       *usecase.EditMessageUseCase
	remove     *usecase.DeleteMessageUseCase
	hydrate    *usecase.HydrateMessagesUseCase
}

func New(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Dispatcher{
		dir:      opts.Directory,
		chats:    opts.Chats,
		fallback: opts.Fallback,
		lanes:    newSequencer(),
		log:      opts.Log.With().Str("component", "dispatcher").Logger(),
		timeout:  opts.Timeout,

		sendDirect: usecase.NewSendDirectMessageUseCase(opts.Chats, opts.Users),
		sendGroup:  usecase.NewSendGroupMessageUseCase(opts.Chats),
		edit:       usecase.NewEditMessageUseCase(opts.Chats),
		remove:     usecase.NewDeleteMessageUseCase(opts.Chats),
		hydrate:    usecase.NewHydrateMessagesUseCase(opts.Chats, opts.Users),
	}
}

// Dispatch applies ev on behalf of sender, who owns conn. It returns once the
// event has been handled or dropped. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, conn *realtime.Connection, sender chat.User, ev event.Inbound) {
	log := d.log.With().
		Str("user_id", sender.ID).
		Str("conn_id", conn.ID).
		Str("event", string(ev.Type())).
		Logger()

	if err := ev.Validate(); err != nil {
		d.drop(log, err)
		return
	}

	key, err := d.laneKey(ctx, sender, ev)
	if err != nil {
		d.drop(log, err)
		return
	}

	err = d.lanes.Do(ctx, key, func() {
		if conn.Closed() {
			log.Debug().Msg("connection closed before event ran")
			return
		}
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		d.handle(hctx, log, conn, sender, ev)
	})
	if err != nil {
		log.Debug().Err(err).Msg("event abandoned while queued")
	}
}

// laneKey returns the conversation key ev is ordered under. Edits and deletes
// carry only a message id, so the message is looked up first.
func (d *Dispatcher) laneKey(ctx context.Context, sender chat.User, ev event.Inbound) (string, error) {
	switch e := ev.(type) {
	case event.SendMessage:
		return chat.DirectConversation(sender.ID, e.ReceiverID).Key(), nil
	case event.StartTyping:
		return chat.DirectConversation(sender.ID, e.ReceiverID).Key(), nil
	case event.StopTyping:
		return chat.DirectConversation(sender.ID, e.ReceiverID).Key(), nil
	case event.SendGroupMessage:
		return chat.GroupConversation(e.GroupID).Key(), nil
	case event.StartTypingGroup:
		return chat.GroupConversation(e.GroupID).Key(), nil
	case event.StopTypingGroup:
		return chat.GroupConversation(e.GroupID).Key(), nil
	case event.EditMessage:
		return d.messageKey(ctx, e.MessageID)
	case event.DeleteMessage:
		return d.messageKey(ctx, e.MessageID)
	}
	return "", event.ErrMalformed
}

func (d *Dispatcher) messageKey(ctx context.Context, messageID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	msg, err := d.chats.GetMessage(ctx, messageID)
	if errors.Is(err, chat.ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", errors.Join(usecase.ErrPersistence, err)
	}
	return msg.Conversation().Key(), nil
}

func (d *Dispatcher) handle(ctx context.Context, log zerolog.Logger, conn *realtime.Connection, sender chat.User, ev event.Inbound) {
	var err error
	switch e := ev.(type) {
	case event.SendMessage:
		err = d.onSendMessage(ctx, log, sender, e)
	case event.SendGroupMessage:
		err = d.onSendGroupMessage(ctx, log, sender, e)
	case event.EditMessage:
		err = d.onEditMessage(ctx, log, sender, e)
	case event.DeleteMessage:
		err = d.onDeleteMessage(ctx, log, sender, e)
	case event.StartTyping:
		err = d.onTyping(log, conn, sender, e.ReceiverID, event.TypeTyping)
	case event.StopTyping:
		err = d.onTyping(log, conn, sender, e.ReceiverID, event.TypeTypingStopped)
	case event.StartTypingGroup:
		err = d.onGroupTyping(log, conn, sender, e.GroupID, event.TypeGroupTyping)
	case event.StopTypingGroup:
		err = d.onGroupTyping(log, conn, sender, e.GroupID, event.TypeGroupStopTyping)
	default:
		err = event.ErrMalformed
	}
	if err != nil {
		d.drop(log, err)
	}
}

func (d *Dispatcher) onSendMessage(ctx context.Context, log zerolog.Logger, sender chat.User, e event.SendMessage) error {
	msg, err := d.sendDirect.Execute(ctx, usecase.SendDirectMessageInput{
		SenderID:   sender.ID,
		ReceiverID: e.ReceiverID,
		Content:    e.Content,
		Type:       e.MessageType,
		ReplyToID:  e.ReplyingTo,
	})
	if err != nil {
		return err
	}
	log = log.With().Str("message_id", msg.ID).Logger()

	view := d.view(ctx, log, sender, *msg)
	targets := union(d.dir.Lookup(e.ReceiverID), d.dir.Lookup(sender.ID))
	d.deliver(log, targets, event.TypeNewMessage, view)

	if !d.dir.HasConnection(e.ReceiverID) && d.fallback != nil {
		log.Debug().Str("receiver_id", e.ReceiverID).Msg("receiver offline, falling back to push")
		d.fallback.Direct(ctx, sender, *msg)
	}
	return nil
}

func (d *Dispatcher) onSendGroupMessage(ctx context.Context, log zerolog.Logger, sender chat.User, e event.SendGroupMessage) error {
	msg, group, err := d.sendGroup.Execute(ctx, usecase.SendGroupMessageInput{
		SenderID:  sender.ID,
		GroupID:   e.GroupID,
		Content:   e.Content,
		Type:      e.MessageType,
		ReplyToID: e.ReplyingTo,
	})
	if err != nil {
		return err
	}
	log = log.With().Str("message_id", msg.ID).Str("group_id", group.ID).Logger()

	view := d.view(ctx, log, sender, *msg)
	targets := union(d.dir.RoomConnections(group.ID), d.dir.Lookup(sender.ID))
	d.deliver(log, targets, event.TypeNewGroupMessage, view)

	if d.fallback == nil {
		return nil
	}
	for _, memberID := range group.MemberIDs {
		if memberID == sender.ID || d.dir.HasConnection(memberID) {
			continue
		}
		d.fallback.Group(ctx, sender, *group, *msg, memberID)
	}
	return nil
}

func (d *Dispatcher) onEditMessage(ctx context.Context, log zerolog.Logger, sender chat.User, e event.EditMessage) error {
	msg, err := d.edit.Execute(ctx, usecase.EditMessageInput{
		MessageID: e.MessageID,
		ActorID:   sender.ID,
		Content:   e.NewContent,
	})
	if err != nil {
		return err
	}
	log = log.With().Str("message_id", msg.ID).Logger()

	view := d.view(ctx, log, sender, *msg)
	d.deliver(log, d.messageTargets(*msg), event.TypeMessageEdited, view)
	return nil
}

func (d *Dispatcher) onDeleteMessage(ctx context.Context, log zerolog.Logger, sender chat.User, e event.DeleteMessage) error {
	msg, err := d.remove.Execute(ctx, usecase.DeleteMessageInput{
		MessageID: e.MessageID,
		ActorID:   sender.ID,
	})
	if err != nil {
		return err
	}
	log = log.With().Str("message_id", msg.ID).Logger()

	d.deliver(log, d.messageTargets(*msg), event.TypeMessageDeleted, event.MessageDeleted{
		MessageID: msg.ID,
		GroupID:   msg.GroupID,
	})
	return nil
}

func (d *Dispatcher) onTyping(log zerolog.Logger, conn *realtime.Connection, sender chat.User, receiverID string, t event.Type) error {
	targets := without(d.dir.Lookup(receiverID), conn.ID)
	d.deliver(log, targets, t, event.Typing{SenderID: sender.ID})
	return nil
}

func (d *Dispatcher) onGroupTyping(log zerolog.Logger, conn *realtime.Connection, sender chat.User, groupID string, t event.Type) error {
	if !d.dir.InRoom(conn.ID, groupID) {
		return chat.ErrNotAuthorized
	}
	targets := without(d.dir.RoomConnections(groupID), conn.ID)
	d.deliver(log, targets, t, event.GroupTyping{GroupID: groupID, Username: sender.Username})
	return nil
}

// messageTargets returns the connections an existing message was delivered to.
func (d *Dispatcher) messageTargets(msg chat.Message) []*realtime.Connection {
	if msg.IsGroup() {
		return d.dir.RoomConnections(msg.GroupID)
	}
	return union(d.dir.Lookup(msg.ReceiverID), d.dir.Lookup(msg.SenderID))
}

func (d *Dispatcher) view(ctx context.Context, log zerolog.Logger, sender chat.User, msg chat.Message) chat.MessageView {
	view, err := d.hydrate.ExecuteOne(ctx, msg)
	if err != nil {
		log.Warn().Err(err).Msg("message hydration failed")
		return chat.NewMessageView(msg, sender.Summary(), nil)
	}
	return view
}

func (d *Dispatcher) deliver(log zerolog.Logger, targets []*realtime.Connection, t event.Type, payload any) {
	if len(targets) == 0 {
		return
	}
	frame, err := event.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Msg("encode outbound frame")
		return
	}
	for _, c := range targets {
		if err := c.Send(frame); err != nil {
			log.Debug().Err(err).Str("target_conn_id", c.ID).Msg("delivery skipped")
		}
	}
}

func (d *Dispatcher) drop(log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		log.Error().Err(err).Msg("event dropped")
	case errors.Is(err, chat.ErrNotAuthorized), errors.Is(err, chat.ErrNotFound):
		log.Info().Err(err).Msg("event dropped")
	default:
		log.Debug().Err(err).Msg("event dropped")
	}
}

// union concatenates connection sets, keeping the first copy of each connection.
func union(sets ...[]*realtime.Connection) []*realtime.Connection {
	seen := make(map[string]struct{})
	var out []*realtime.Connection
	for _, set := range sets {
		for _, c := range set {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func without(conns []*realtime.Connection, connID string) []*realtime.Connection {
	out := conns[:0:0]
	for _, c := range conns {
		if c.ID != connID {
			out = append(out, c)
		}
	}
	return out
}
