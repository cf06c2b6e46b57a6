package dialer

import (
	"net"

	"github.com/pkg/errors"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/tcpraw"
)

// DialKCP dials addr as a plain KCP session over UDP.
func DialKCP(addr string, dataShard, parityShard int) (net.Conn, error) {
	conn, err := kcp.DialWithOptions(addr, nil, dataShard, parityShard)
	if err != nil {
		return nil, errors.Wrap(err, "dialer: kcp.DialWithOptions")
	}
	return conn, nil
}

// DialKCPOverTCP dials addr with tcpraw (KCP framed over a raw TCP-shaped
// socket instead of UDP).
func DialKCPOverTCP(addr string, dataShard, parityShard int) (net.Conn, error) {
	raw, err := tcpraw.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "dialer: tcpraw.Dial")
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		raw.Close()
		return nil, errors.Wrap(err, "dialer: resolve tcp addr")
	}
	conn, err := kcp.NewConn2(tcpAddr, nil, dataShard, parityShard, raw)
	if err != nil {
		raw.Close()
		return nil, errors.Wrap(err, "dialer: kcp.NewConn2")
	}
	return conn, nil
}

// ListenKCP listens on addr for plain KCP sessions over UDP.
func ListenKCP(addr string, dataShard, parityShard int) (*kcp.Listener, error) {
	l, err := kcp.ListenWithOptions(addr, nil, dataShard, parityShard)
	if err != nil {
		return nil, errors.Wrap(err, "dialer: kcp.ListenWithOptions")
	}
	return l, nil
}

// ListenKCPOverTCP listens on addr with tcpraw.
func ListenKCPOverTCP(addr string, dataShard, parityShard int) (*kcp.Listener, error) {
	raw, err := tcpraw.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "dialer: tcpraw.Listen")
	}
	l, err := kcp.ServeConn(nil, dataShard, parityShard, raw)
	if err != nil {
		raw.Close()
		return nil, errors.Wrap(err, "dialer: kcp.ServeConn")
	}
	return l, nil
}
