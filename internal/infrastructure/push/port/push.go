package port

import (
	"context"
	"errors"
)

// Notification is the payload rendered by the client's service worker.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Subscription is a browser push endpoint with its encryption keys.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// ErrStaleSubscription is returned by a Sender when the push service reports
// that the endpoint no longer exists.
var ErrStaleSubscription = errors.New("push: subscription expired or unsubscribed")

// Sender delivers one notification and waits for the push service's answer.
type Sender interface {
	Send(ctx context.Context, sub Subscription, n Notification) error
}

// Dispatcher hands a notification off for delivery without waiting for the
// outcome. A returned error means the hand-off itself failed.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub Subscription, n Notification) error
}
