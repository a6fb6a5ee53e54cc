package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"go-chatline/internal/config"
	"go-chatline/internal/infrastructure/push/port"
)

// WebPushSender implements port.Sender with VAPID-signed web push.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	client     *http.Client
}

// NewWebPushSender builds a sender from the VAPID configuration.
func NewWebPushSender(cfg config.PushConfig) (*WebPushSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("webpush: VAPID keys are not configured")
	}
	return &WebPushSender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.Subject,
		ttl:        cfg.TTL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

var _ port.Sender = (*WebPushSender)(nil)

func (s *WebPushSender) Send(ctx context.Context, sub port.Subscription, n port.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webpush: encode notification: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return fmt.Errorf("webpush: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return statusError(resp.StatusCode)
}

func statusError(status int) error {
	switch {
	case status == http.StatusGone || status == http.StatusNotFound:
		return port.ErrStaleSubscription
	case status >= 200 && status < 300:
		return nil
	default:
		return fmt.Errorf("webpush: push service answered %d", status)
	}
}
