package chanmux

// Channel is the application-facing handle for one logical channel: a
// blocking send/receive endpoint coupled to a Session's receiver and sender
// pumps.
type Channel struct {
	id ChannelID

	receiver *ReceiverPump
	sender   *SenderPump

	dataEvent *Event
	finEvent  *Event
	l         *listener

	sendAlive bool
	recvAlive bool
}

// newChannel constructs and registers a Channel for id against receiver and
// sender, which must share the same Lock (asserted by identity, mirroring
// the original source's shared-lock assertion).
func newChannel(id ChannelID, receiver *ReceiverPump, sender *SenderPump, sharedA, sharedB *Lock) *Channel {
	if !sharedA.SameAs(sharedB) {
		panic("chanmux: receiver pump and sender pump must share one Lock")
	}
	if id == AdminChannel {
		panic("chanmux: a Channel may not be constructed on the admin channel")
	}

	c := &Channel{
		id:        id,
		receiver:  receiver,
		sender:    sender,
		dataEvent: NewEvent(true),
		finEvent:  NewEvent(false),
		sendAlive: true,
		recvAlive: true,
	}
	c.l = receiver.AddListener(id, c.dataEvent, c.finEvent)
	return c
}

// close releases the Channel's registration if it is still receive-alive.
// Called when the owning Session tears the Channel down.
func (c *Channel) close() {
	if c.recvAlive {
		c.receiver.RemoveListener(c.id)
	}
}

// ID returns the channel's 8-bit identifier.
func (c *Channel) ID() ChannelID {
	return c.id
}

// Send enqueues buf for transmission on this channel. Non-blocking: it
// returns once the task is queued, not once the bytes are on the wire.
func (c *Channel) Send(buf []byte) {
	if !c.sendAlive {
		panic("chanmux: send after signal_end on this channel")
	}
	c.sender.AddSendTask(c.id, buf)
}

// SendIDLen is Send with a 16-byte (id, len) prefix prepended, the id/len
// application convention used to frame an id alongside its payload.
func (c *Channel) SendIDLen(buf []byte, id, length uint64) {
	if !c.sendAlive {
		panic("chanmux: send after signal_end on this channel")
	}
	c.sender.AddSendTaskStartLen(c.id, buf, id, length)
}

// queueEmpty reports whether the inbound FIFO currently holds no blocks.
func (c *Channel) queueEmpty() bool {
	return c.l.empty()
}

// BlockingReceive waits for and returns the next queued block, transferring
// ownership of the buffer to the caller.
func (c *Channel) BlockingReceive() []byte {
	if !c.recvAlive {
		panic("chanmux: receive after fin on this channel")
	}
	for c.queueEmpty() {
		c.dataEvent.Wait()
	}
	buf, ok := c.l.popFront()
	if !ok {
		// Lost a race with another consumer of the same channel; retry.
		return c.BlockingReceive()
	}
	return buf
}

// BlockingReceiveIDLen receives one block and splits its (id, len) prefix
// from the payload, the inverse of SendIDLen.
func (c *Channel) BlockingReceiveIDLen() (id, length uint64, data []byte) {
	buf := c.BlockingReceive()
	return decodeIDLenPrefix(buf)
}

// BlockingReceiveInto fills exactly len(buf) bytes into buf, splicing
// across one or more queued blocks as needed. This is the "peek and
// shrink" realization of blocking_receive(buf, size): a block
// larger than requested has its head consumed and the shrunk remainder
// kept at the front of the queue, rather than mutated in place and freed.
func (c *Channel) BlockingReceiveInto(buf []byte) {
	if !c.recvAlive {
		panic("chanmux: receive after fin on this channel")
	}
	if len(buf) == 0 {
		return
	}
	c.blockingReceiveInto(buf)
}

func (c *Channel) blockingReceiveInto(buf []byte) {
	for c.queueEmpty() {
		c.dataEvent.Wait()
	}

	front, ok := c.l.peekFront()
	if !ok {
		c.blockingReceiveInto(buf)
		return
	}

	switch {
	case len(front) == len(buf):
		c.l.popFront()
		copy(buf, front)
	case len(front) > len(buf):
		copy(buf, front[:len(buf)])
		c.l.replaceFront(front[len(buf):])
	default:
		c.l.popFront()
		copy(buf[:len(front)], front)
		c.blockingReceiveInto(buf[len(front):])
	}
}

// IsAlive reports whether there is still something to receive: it is false
// only once the queue is drained AND the fin event has been observed.
func (c *Channel) IsAlive() bool {
	return !(c.queueEmpty() && c.finEvent.IsSet())
}

// DataAvailable reports whether the inbound queue currently holds a block.
func (c *Channel) DataAvailable() bool {
	return !c.queueEmpty()
}

// SignalEnd emits a fin frame for this channel and marks the send side
// closed; Send must not be called afterwards.
func (c *Channel) SignalEnd() {
	c.sender.SignalEnd(c.id)
	c.sendAlive = false
}

// WaitForFin blocks until the peer's fin for this channel is observed.
func (c *Channel) WaitForFin() {
	c.finEvent.Wait()
	c.recvAlive = false
}

// SynchronizeEnd performs the orderly two-way teardown for this channel:
// signal local fin if not already signalled, discard anything still
// queued, then wait for the peer's fin.
func (c *Channel) SynchronizeEnd() {
	if c.sendAlive {
		c.SignalEnd()
	}
	for c.recvAlive {
		c.receiver.FlushQueue(c.id)
		c.WaitForFin()
	}
}
