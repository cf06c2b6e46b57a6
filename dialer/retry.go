package dialer

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// RetryConnect is the number of dial attempts DialRetry makes before giving
// up, at RetryInterval apart. A library function shouldn't block a caller
// forever the way a reconnect loop in a CLI main reasonably can, so the
// retry count is bounded rather than infinite.
const RetryConnect = 50

// RetryInterval is the pause between dial attempts.
const RetryInterval = 10 * time.Millisecond

// DialRetry dials network/addr up to attempts times (RetryConnect if
// attempts <= 0) at interval apart (RetryInterval if interval <= 0), then
// runs Handshake on the first connection that dials successfully.
func DialRetry(network, addr string, peerID, connIndex uint32, attempts int, interval time.Duration) (net.Conn, error) {
	if attempts <= 0 {
		attempts = RetryConnect
	}
	if interval <= 0 {
		interval = RetryInterval
	}

	return DialFuncRetry(func() (net.Conn, error) {
		return net.Dial(network, addr)
	}, peerID, connIndex, attempts, interval)
}

// DialFuncRetry is DialRetry generalized over an arbitrary dial function —
// used by cmd/muxclient to retry a kcp-go or tcpraw dial instead of a plain
// TCP one.
func DialFuncRetry(dial func() (net.Conn, error), peerID, connIndex uint32, attempts int, interval time.Duration) (net.Conn, error) {
	if attempts <= 0 {
		attempts = RetryConnect
	}
	if interval <= 0 {
		interval = RetryInterval
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, err := dial()
		if err != nil {
			lastErr = err
			time.Sleep(interval)
			continue
		}

		if err := Handshake(conn, peerID, connIndex); err != nil {
			conn.Close()
			lastErr = err
			time.Sleep(interval)
			continue
		}

		return conn, nil
	}
	return nil, errors.Wrapf(lastErr, "dialer: giving up after %d attempts", attempts)
}
