package bridge

import (
	"errors"
	"fmt"
	"time"

	"minibot-bridge-go/internal/codec"
	"minibot-bridge-go/internal/config"
)

var (
	ErrConnection = errors.New("connection error")
	ErrSequence   = errors.New("request already outstanding")
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAwaitingReply
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAwaitingReply:
		return "awaiting_reply"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session owns one duplex channel to the robot and enforces strict
// request/reply turn-taking on it: at most one command is outstanding
// at any time. Every error is fatal to the session; the caller decides
// whether to reconnect. A Session is driven by a single goroutine —
// sharing one needs external serialization.
type Session struct {
	ch          Channel
	state       State
	recvTimeout time.Duration
	latest      *codec.Frame
}

// Connect dials the robot endpoint and returns a connected session.
func Connect(cfg config.Config) (*Session, error) {
	ch, err := Dial(cfg.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, cfg.Endpoint(), err)
	}
	return NewSession(ch, cfg.RecvTimeout), nil
}

// NewSession wraps an already-open channel. The session takes ownership
// of the channel and closes it on any fatal error.
func NewSession(ch Channel, recvTimeout time.Duration) *Session {
	return &Session{ch: ch, state: StateConnected, recvTimeout: recvTimeout}
}

func (s *Session) State() State { return s.state }

// Latest returns the most recently decoded frame, or nil before the
// first reply. Only this one frame is ever retained.
func (s *Session) Latest() *codec.Frame { return s.latest }

// SendCommand writes one encoded command to the channel and moves the
// session to AwaitingReply. Calling it with a reply still pending fails
// ErrSequence without touching the channel.
func (s *Session) SendCommand(msg []byte) error {
	switch s.state {
	case StateAwaitingReply:
		return fmt.Errorf("%w: reply still pending", ErrSequence)
	case StateDisconnected:
		return fmt.Errorf("%w: session is disconnected", ErrConnection)
	}
	if err := s.ch.Send(msg); err != nil {
		s.drop()
		return fmt.Errorf("%w: send command: %v", ErrConnection, err)
	}
	s.state = StateAwaitingReply
	return nil
}

// ReceiveReply reads the header and the exact-length payload of the
// pending reply, decodes it and caches the frame. Any failure — timeout,
// channel loss, corrupt header, payload mismatch — drops the session to
// Disconnected: a desynced stream cannot be resynchronized, only
// reconnected.
func (s *Session) ReceiveReply() (*codec.Frame, error) {
	if s.state != StateAwaitingReply {
		return nil, fmt.Errorf("%w: no request outstanding", ErrSequence)
	}
	if err := s.ch.SetRecvDeadline(s.recvTimeout); err != nil {
		s.drop()
		return nil, fmt.Errorf("%w: set deadline: %v", ErrConnection, err)
	}
	headerBytes, err := s.ch.Recv()
	if err != nil {
		s.drop()
		return nil, fmt.Errorf("%w: recv header: %v", ErrConnection, err)
	}
	header, err := codec.ParseHeader(headerBytes)
	if err != nil {
		// Not valid header JSON means the framing is lost, not that a
		// well-formed reply was unsupported.
		s.drop()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	payload, err := s.ch.Recv()
	if err != nil {
		s.drop()
		return nil, fmt.Errorf("%w: recv payload: %v", ErrConnection, err)
	}
	frame, err := codec.Decode(header, payload)
	if err != nil {
		s.drop()
		return nil, err
	}
	s.latest = frame
	s.state = StateConnected
	return frame, nil
}

// Roundtrip sends one command and blocks for its reply.
func (s *Session) Roundtrip(msg []byte) (*codec.Frame, error) {
	if err := s.SendCommand(msg); err != nil {
		return nil, err
	}
	return s.ReceiveReply()
}

// Close releases the channel. Closing a disconnected session is a no-op.
func (s *Session) Close() error {
	if s.state == StateDisconnected {
		return nil
	}
	return s.drop()
}

func (s *Session) drop() error {
	s.state = StateDisconnected
	if s.ch == nil {
		return nil
	}
	err := s.ch.Close()
	s.ch = nil
	return err
}
