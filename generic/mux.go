package generic

import (
	"io"
)

// Mux is the transport-agnostic surface cmd/muxclient and cmd/muxserver
// relay against. Unlike an smux-shaped mux (dynamic Open/Accept over an
// unbounded stream count), channels here are pre-addressed: there is no
// Accept, only Open(id) against an id both peers already agree on.
type Mux interface {
	Open(id uint8) (Stream, error)
	Close() error
}

// Stream is a byte-stream view of one multiplexed channel, letting
// std.Copy/std.Pipe and io.Copy treat a chanmux.Channel like any other
// io.ReadWriteCloser.
type Stream interface {
	io.ReadWriteCloser
	ID() uint8
}
