package generic

import (
	"io"
	"time"

	"github.com/encryptogroup/abychanmux/chanmux"
)

// pollInterval bounds how long Read waits after a channel's queue goes
// empty before rechecking for fin. chanmux.Channel exposes no single wait
// that wakes on "data or fin", only BlockingReceive (data-only) and
// WaitForFin (fin-only), so this is a deliberate, bounded poll rather than
// a busy loop; the common case (data already queued) never reaches it.
const pollInterval = 2 * time.Millisecond

// ChannelStream adapts a *chanmux.Channel to io.ReadWriteCloser so
// std.Copy/std.Pipe and io.Copy can relay an ordinary byte stream (stdio, a
// net.Conn) across one multiplexed channel.
type ChannelStream struct {
	ch       *chanmux.Channel
	session  *chanmux.Session
	leftover []byte
}

// NewChannelStream wraps ch. The caller still owns ch's lifecycle; Close
// only signals end on the send side. Streams obtained through SessionMux.Open
// additionally unregister ch from its Session on Close, see
// newChannelStreamInSession.
func NewChannelStream(ch *chanmux.Channel) *ChannelStream {
	return &ChannelStream{ch: ch}
}

// newChannelStreamInSession wraps ch the way NewChannelStream does, but
// also has Close release ch's slot in session, so the same channel id can
// be reopened for a later connection (cmd/muxclient's allocate/release
// pool depends on this).
func newChannelStreamInSession(ch *chanmux.Channel, session *chanmux.Session) *ChannelStream {
	return &ChannelStream{ch: ch, session: session}
}

// ID returns the wrapped channel's id.
func (s *ChannelStream) ID() uint8 {
	return s.ch.ID()
}

// Read copies into p from at most one queued block per call, keeping any
// part of the block that does not fit for the next Read; unlike
// Channel.BlockingReceiveInto it does not fill p across several blocks. It
// returns io.EOF once the channel is no longer alive and nothing is left
// buffered.
func (s *ChannelStream) Read(p []byte) (int, error) {
	if len(s.leftover) > 0 {
		n := copy(p, s.leftover)
		s.leftover = s.leftover[n:]
		return n, nil
	}

	for {
		if s.ch.DataAvailable() {
			block := s.ch.BlockingReceive()
			n := copy(p, block)
			if n < len(block) {
				s.leftover = block[n:]
			}
			return n, nil
		}
		if !s.ch.IsAlive() {
			return 0, io.EOF
		}
		time.Sleep(pollInterval)
	}
}

// DataAvailable reports whether a block is already queued for this
// channel, letting a caller that wants to dial an upstream target lazily
// (only once something has actually arrived) poll without blocking in
// Read.
func (s *ChannelStream) DataAvailable() bool {
	return s.ch.DataAvailable()
}

// IsAlive reports whether the channel can still produce more data.
func (s *ChannelStream) IsAlive() bool {
	return s.ch.IsAlive()
}

// Write enqueues p as a single send task. It always reports the full
// length written, matching Channel.Send's "queued" rather than "flushed"
// completion semantics.
func (s *ChannelStream) Write(p []byte) (int, error) {
	s.ch.Send(append([]byte(nil), p...))
	return len(p), nil
}

// Close signals end-of-stream on the channel's send side without waiting
// for the peer's fin; callers needing a synchronous teardown should call
// Channel.SynchronizeEnd directly instead. A stream obtained through
// SessionMux.Open also releases the channel's slot in its Session, so the
// id becomes eligible to be opened again.
func (s *ChannelStream) Close() error {
	s.ch.SignalEnd()
	if s.session != nil {
		s.session.CloseChannel(s.ch)
	}
	return nil
}

// SessionMux adapts a *chanmux.Session to Mux.
type SessionMux struct {
	session *chanmux.Session
}

// NewSessionMux wraps session.
func NewSessionMux(session *chanmux.Session) *SessionMux {
	return &SessionMux{session: session}
}

// Open opens channel id on the underlying session and wraps it as a Stream.
func (m *SessionMux) Open(id uint8) (Stream, error) {
	ch, err := m.session.Open(id)
	if err != nil {
		return nil, err
	}
	return newChannelStreamInSession(ch, m.session), nil
}

// Close runs the session's shutdown handshake.
func (m *SessionMux) Close() error {
	return m.session.Close()
}
