package chanmux

import (
	"sync"

	"github.com/pkg/errors"
)

// Session owns one Socket's pair of pumps and the channel registry built on
// top of them. It is the construction surface an application uses to open
// Channels and to run the connection-wide shutdown handshake; the pumps
// and the Channel are lower-level primitives that leave this wiring to the
// surrounding application (see DESIGN.md).
type Session struct {
	sock     Socket
	lock     *Lock
	receiver *ReceiverPump
	sender   *SenderPump

	mu       sync.Mutex
	channels [MaxChannels]*Channel
	closed   bool
}

// NewSession wraps sock with a receiver pump and a sender pump sharing one
// Lock, and starts both pumps. Call Close to run the shutdown handshake.
func NewSession(sock Socket) *Session {
	lock := NewLock()
	s := &Session{
		sock:     sock,
		lock:     lock,
		receiver: NewReceiverPump(sock, lock),
		sender:   NewSenderPump(sock, lock),
	}
	s.receiver.Start()
	s.sender.Start()
	return s
}

// Open constructs and registers a Channel for id. Only one Channel may be
// open on a given id at a time.
func (s *Session) Open(id ChannelID) (*Channel, error) {
	if id == AdminChannel {
		return nil, errors.New("chanmux: channel 0 is reserved for admin shutdown signalling")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("chanmux: session is closed")
	}
	if s.channels[id] != nil {
		return nil, errors.Errorf("chanmux: channel %d is already open", id)
	}

	c := newChannel(id, s.receiver, s.sender, s.lock, s.lock)
	s.channels[id] = c
	return c, nil
}

// CloseChannel releases a previously opened Channel's registration without
// running the full graceful handshake; callers that want a clean peer
// handshake should call Channel.SynchronizeEnd first.
func (s *Session) CloseChannel(c *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels[c.id] == c {
		s.channels[c.id] = nil
	}
	c.close()
}

// Receiver exposes the Session's receiver pump, e.g. for Err()/Done() after
// an unexpected disconnect.
func (s *Session) Receiver() *ReceiverPump {
	return s.receiver
}

// Sender exposes the Session's sender pump.
func (s *Session) Sender() *SenderPump {
	return s.sender
}

// Socket exposes the underlying Socket, e.g. for byte-counter reporting.
func (s *Session) Socket() Socket {
	return s.sock
}

// Close runs the connection-wide shutdown handshake: emit
// the admin-channel kill frame, wait for both pumps to exit, and release
// any Channels the caller never closed itself. It does not run
// SynchronizeEnd on open Channels; callers that need a clean peer
// handshake per channel should do so before calling Close.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for i, c := range s.channels {
		if c != nil {
			c.close()
			s.channels[i] = nil
		}
	}
	s.mu.Unlock()

	s.sender.KillTask()
	s.sender.Wait()
	s.receiver.Wait()

	if err := s.sender.Err(); err != nil {
		return err
	}
	return nil
}
