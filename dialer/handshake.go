// Package dialer handles connection establishment around a chanmux
// session: the peer-id/connection-index handshake, multi-port fan-out
// dialing, and a socket placement table.
package dialer

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"
)

// Handshake exchanges (peerID, connIndex) with the peer at the other end of
// conn: it writes its own values, then reads the peer's, and fails if they
// do not match what this side expects. Both ends of a connection must be
// configured with the same (peerID, connIndex) for a given socket slot, so
// a mismatch means the two sides were wired to different slots, or a
// different peer entirely landed on this socket.
func Handshake(conn net.Conn, peerID, connIndex uint32) error {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out[0:4], peerID)
	binary.LittleEndian.PutUint32(out[4:8], connIndex)
	if _, err := conn.Write(out); err != nil {
		return errors.Wrap(err, "dialer: handshake write")
	}

	in := make([]byte, 8)
	if _, err := io.ReadFull(conn, in); err != nil {
		return errors.Wrap(err, "dialer: handshake read")
	}

	gotPeerID := binary.LittleEndian.Uint32(in[0:4])
	gotConnIndex := binary.LittleEndian.Uint32(in[4:8])
	if gotPeerID != peerID || gotConnIndex != connIndex {
		return errors.Errorf("dialer: handshake mismatch: expected peer %d conn %d, got peer %d conn %d",
			peerID, connIndex, gotPeerID, gotConnIndex)
	}
	return nil
}
