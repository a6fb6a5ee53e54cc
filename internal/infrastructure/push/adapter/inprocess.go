package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go-chatline/internal/infrastructure/push/port"
)

// InProcessDispatcher delivers notifications on background goroutines.
// It is used when no queue backend is configured.
type InProcessDispatcher struct {
	sender  port.Sender
	timeout time.Duration
	log     zerolog.Logger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewInProcessDispatcher wraps sender. Each delivery gets its own timeout.
func NewInProcessDispatcher(sender port.Sender, timeout time.Duration, log zerolog.Logger) *InProcessDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InProcessDispatcher{
		sender:  sender,
		timeout: timeout,
		log:     log.With().Str("component", "push").Logger(),
	}
}

var _ port.Dispatcher = (*InProcessDispatcher)(nil)

// Dispatch returns immediately; the outcome is only logged.
func (d *InProcessDispatcher) Dispatch(_ context.Context, sub port.Subscription, n port.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.New("push: dispatcher closed")
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		LogResult(d.log, sub, d.sender.Send(ctx, sub, n))
	}()
	return nil
}

// Close stops accepting work and waits for in-flight deliveries.
func (d *InProcessDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// LogResult records the outcome of one delivery attempt.
func LogResult(log zerolog.Logger, sub port.Subscription, err error) {
	switch {
	case err == nil:
		log.Debug().Str("endpoint", sub.Endpoint).Msg("push delivered")
	case errors.Is(err, port.ErrStaleSubscription):
		log.Info().Str("endpoint", sub.Endpoint).Msg("push subscription is stale")
	default:
		log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("push delivery failed")
	}
}

// NoopSender drops every notification. It stands in when VAPID keys are absent.
type NoopSender struct {
	Log zerolog.Logger
}

func (s NoopSender) Send(_ context.Context, sub port.Subscription, n port.Notification) error {
	s.Log.Debug().Str("endpoint", sub.Endpoint).Str("title", n.Title).Msg("push disabled, notification dropped")
	return nil
}
