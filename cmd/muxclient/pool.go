package main

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/encryptogroup/abychanmux/chanmux"
)

// channelPool hands out channel ids 1..n, one per concurrently relayed
// local connection. Channel 0 is the admin channel and is never handed
// out. This is the fixed, pre-addressed stand-in for smux's dynamic
// OpenStream: the set of ids is agreed with the peer ahead of time, via
// -conn on both ends.
type channelPool struct {
	mu   sync.Mutex
	free []chanmux.ChannelID
}

func newChannelPool(n int) *channelPool {
	if n <= 0 || n >= chanmux.MaxChannels {
		n = 16
	}
	p := &channelPool{free: make([]chanmux.ChannelID, 0, n)}
	for i := 1; i <= n; i++ {
		p.free = append(p.free, chanmux.ChannelID(i))
	}
	return p
}

func (p *channelPool) allocate() (chanmux.ChannelID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return 0, errors.New("muxclient: no free channel slots, raise -conn")
	}
	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return id, nil
}

func (p *channelPool) release(id chanmux.ChannelID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, id)
}
