// Package realtimetest provides a recording socket for exercising realtime
// connections without a network.
package realtimetest

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is a decoded {"type","payload"} text frame.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Socket records every text frame written to it. It satisfies realtime.Socket.
type Socket struct {
	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	closeMsg []byte
	notify   chan struct{}
}

// NewSocket returns an empty recording socket.
func NewSocket() *Socket {
	return &Socket{notify: make(chan struct{}, 1)}
}

func (s *Socket) SetWriteDeadline(time.Time) error { return nil }

func (s *Socket) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	s.frames = append(s.frames, append([]byte(nil), data...))
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

func (s *Socket) WriteControl(messageType int, data []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if messageType == websocket.CloseMessage {
		s.closeMsg = append([]byte(nil), data...)
	}
	return nil
}

func (s *Socket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Raw returns a copy of every text frame written so far.
func (s *Socket) Raw() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

// Frames decodes every recorded frame. Frames that are not JSON envelopes are skipped.
func (s *Socket) Frames() []Frame {
	raw := s.Raw()
	out := make([]Frame, 0, len(raw))
	for _, b := range raw {
		var f Frame
		if err := json.Unmarshal(b, &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// FramesOfType returns the recorded frames whose type is t.
func (s *Socket) FramesOfType(t string) []Frame {
	var out []Frame
	for _, f := range s.Frames() {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// WaitFor blocks until at least n frames of type t were recorded or timeout elapses.
// It returns the frames of type t seen at that point.
func (s *Socket) WaitFor(t string, n int, timeout time.Duration) []Frame {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if got := s.FramesOfType(t); len(got) >= n {
			return got
		}
		select {
		case <-s.notify:
		case <-deadline.C:
			return s.FramesOfType(t)
		}
	}
}

// Reset forgets recorded frames.
func (s *Socket) Reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}
