package dispatcher

import (
	"context"
	"sync"
)

// sequencer runs functions sharing a key one at a time, in the order Do was
// called. Different keys run concurrently. Idle keys hold no memory.
type sequencer struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	tail chan struct{}
	refs int
}

func newSequencer() *sequencer {
	return &sequencer{lanes: make(map[string]*lane)}
}

// Do waits for every earlier call with the same key, then runs fn. If ctx is
// done before fn's turn comes, fn is not run and ctx.Err() is returned; later
// calls still wait for the earlier ones.
func (s *sequencer) Do(ctx context.Context, key string, fn func()) error {
	s.mu.Lock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{}
		s.lanes[key] = l
	}
	prev := l.tail
	done := make(chan struct{})
	l.tail = done
	l.refs++
	s.mu.Unlock()

	defer s.release(key, l)

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				close(done)
			}()
			return ctx.Err()
		}
	}

	defer close(done)
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

func (s *sequencer) release(key string, l *lane) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.lanes, key)
	}
}

// size returns the number of keys with pending or running work.
func (s *sequencer) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}
