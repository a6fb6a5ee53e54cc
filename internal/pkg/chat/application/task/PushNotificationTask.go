package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	pushAdapter "go-chatline/internal/infrastructure/push/adapter"
	pport "go-chatline/internal/infrastructure/push/port"
	qport "go-chatline/internal/infrastructure/queue/port"
)

// PushNotificationTaskType is the queue task name for delivering one browser push.
const PushNotificationTaskType = "notification:push"

// PushQueue is the queue push tasks are enqueued on.
const PushQueue = "push"

// PushNotificationTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from the port types to avoid tight coupling with JSON tags.
type PushNotificationTaskPayload struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Icon     string `json:"icon,omitempty"`
}

// QueuedPushDispatcher hands notifications to the background queue.
// Delivery is best-effort: tasks are never retried.
type QueuedPushDispatcher struct {
	client qport.Client
}

func NewQueuedPushDispatcher(client qport.Client) *QueuedPushDispatcher {
	return &QueuedPushDispatcher{client: client}
}

var _ pport.Dispatcher = (*QueuedPushDispatcher)(nil)

func (d *QueuedPushDispatcher) Dispatch(ctx context.Context, sub pport.Subscription, n pport.Notification) error {
	payload, err := json.Marshal(PushNotificationTaskPayload{
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
		Title:    n.Title,
		Body:     n.Body,
		Icon:     n.Icon,
	})
	if err != nil {
		return err
	}

	_, err = d.client.Enqueue(ctx, qport.Task{Type: PushNotificationTaskType, Payload: payload},
		qport.EnqueueOption{Queue: PushQueue, NoRetry: true, Timeout: 30 * time.Second})
	return err
}

// RegisterPushNotificationTask binds the task handler to the provided server.
// The handler delivers the notification through sender and only logs the outcome.
func RegisterPushNotificationTask(srv qport.Server, sender pport.Sender, log zerolog.Logger) {
	log = log.With().Str("component", "push-worker").Logger()

	srv.Register(PushNotificationTaskType, func(ctx context.Context, t qport.Task) error {
		var p PushNotificationTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry
			return fmt.Errorf("%w: %v", qport.ErrSkipRetry, err)
		}

		sub := pport.Subscription{Endpoint: p.Endpoint, P256dh: p.P256dh, Auth: p.Auth}
		err := sender.Send(ctx, sub, pport.Notification{Title: p.Title, Body: p.Body, Icon: p.Icon})
		pushAdapter.LogResult(log, sub, err)
		if errors.Is(err, pport.ErrStaleSubscription) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", qport.ErrSkipRetry, err)
		}
		return nil
	})
}
