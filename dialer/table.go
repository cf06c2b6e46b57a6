package dialer

import (
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/encryptogroup/abychanmux/std"
)

// SocketTable places accepted connections into sockets[peerID][connIndex],
// the slot a listening side routes an inbound connection to once its
// Handshake has been read.
type SocketTable struct {
	mu      sync.Mutex
	sockets map[uint32]map[uint32]net.Conn
}

// NewSocketTable constructs an empty table.
func NewSocketTable() *SocketTable {
	return &SocketTable{sockets: make(map[uint32]map[uint32]net.Conn)}
}

// Put places conn at (peerID, connIndex), closing and replacing any
// connection already occupying that slot.
func (t *SocketTable) Put(peerID, connIndex uint32, conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots, ok := t.sockets[peerID]
	if !ok {
		slots = make(map[uint32]net.Conn)
		t.sockets[peerID] = slots
	}
	if old, ok := slots[connIndex]; ok && old != conn {
		old.Close()
	}
	slots[connIndex] = conn
}

// Get returns the connection at (peerID, connIndex), if any.
func (t *SocketTable) Get(peerID, connIndex uint32) (net.Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots, ok := t.sockets[peerID]
	if !ok {
		return nil, false
	}
	conn, ok := slots[connIndex]
	return conn, ok
}

// Remove drops the connection at (peerID, connIndex) from the table,
// without closing it.
func (t *SocketTable) Remove(peerID, connIndex uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slots, ok := t.sockets[peerID]; ok {
		delete(slots, connIndex)
	}
}

// Len reports how many connections are currently registered for peerID.
func (t *SocketTable) Len(peerID uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sockets[peerID])
}

// ListenRange parses a "host:port" or "host:minport-maxport" address into
// one listen address per port, in ascending port order.
func ListenRange(addr string) ([]string, error) {
	mp, err := std.ParseMultiPort(addr)
	if err != nil {
		return nil, errors.Wrap(err, "dialer: parsing listen range")
	}

	var addrs []string
	for port := mp.MinPort; port <= mp.MaxPort; port++ {
		addrs = append(addrs, fmt.Sprintf("%s:%d", mp.Host, port))
	}
	return addrs, nil
}
