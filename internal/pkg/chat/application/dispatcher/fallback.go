package dispatcher

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	pport "go-chatline/internal/infrastructure/push/port"
	chat "go-chatline/internal/pkg/chat/application/domain"
	userport "go-chatline/internal/repository/port"
)

const imageBody = "📷 Image"

// Fallback turns messages for offline users into push notifications.
// It never waits for delivery and never reports failures to the caller.
type Fallback struct {
	users    userport.UserRepository
	pusher   pport.Dispatcher
	iconBase string
	log      zerolog.Logger
}

// NewFallback builds a Fallback. iconBase prefixes relative avatar paths.
func NewFallback(users userport.UserRepository, pusher pport.Dispatcher, iconBase string, log zerolog.Logger) *Fallback {
	return &Fallback{
		users:    users,
		pusher:   pusher,
		iconBase: strings.TrimRight(iconBase, "/"),
		log:      log.With().Str("component", "fallback").Logger(),
	}
}

// Direct notifies the receiver of a direct message.
func (f *Fallback) Direct(ctx context.Context, sender chat.User, msg chat.Message) {
	f.notify(ctx, msg.ReceiverID, msg.ID, pport.Notification{
		Title: "New message from " + sender.Username,
		Body:  body(msg),
		Icon:  f.icon(sender.Avatar),
	})
}

// Group notifies one member of a group message.
func (f *Fallback) Group(ctx context.Context, sender chat.User, group chat.Group, msg chat.Message, memberID string) {
	f.notify(ctx, memberID, msg.ID, pport.Notification{
		Title: "New message in " + group.Name,
		Body:  sender.Username + ": " + body(msg),
		Icon:  f.icon(sender.Avatar),
	})
}

func (f *Fallback) notify(ctx context.Context, userID, messageID string, n pport.Notification) {
	log := f.log.With().Str("user_id", userID).Str("message_id", messageID).Logger()

	sub, err := f.users.GetPushSubscription(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("push subscription lookup failed")
		return
	}
	if sub == nil || !sub.Valid() {
		log.Debug().Msg("no push subscription")
		return
	}

	target := pport.Subscription{Endpoint: sub.Endpoint, P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth}
	if err := f.pusher.Dispatch(ctx, target, n); err != nil {
		log.Warn().Err(err).Msg("push dispatch failed")
		return
	}
	log.Debug().Msg("push dispatched")
}

func (f *Fallback) icon(avatar string) string {
	if avatar == "" {
		return ""
	}
	if strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://") {
		return avatar
	}
	return f.iconBase + "/" + strings.TrimLeft(avatar, "/")
}

func body(msg chat.Message) string {
	if msg.Type == chat.MessageTypeImage {
		return imageBody
	}
	return msg.Content
}
