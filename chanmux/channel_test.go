package chanmux

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"
)

func TestSendAfterSignalEndPanics(t *testing.T) {
	a, b := newSessionPair(t)
	_ = b

	chA, _ := a.Open(20)
	chA.SignalEnd()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic sending after signal_end")
		}
	}()
	chA.Send([]byte{0x01})
}

func TestMismatchedSharedLockPanics(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := connB.Read(buf); err != nil {
				return
			}
		}
	}()

	recv := NewReceiverPump(NewCountingSocket(connA), NewLock())
	send := NewSenderPump(NewCountingSocket(connA), NewLock())
	recv.Start()
	send.Start()
	defer func() {
		send.KillTask()
		send.Wait()
	}()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic when receiver and sender do not share a Lock")
		}
	}()
	newChannel(1, recv, send, NewLock(), NewLock())
}

func TestLargeBlockRoundTrip(t *testing.T) {
	a, b := newSessionPair(t)
	chA, _ := a.Open(30)
	chB, _ := b.Open(30)

	// MaxFrameLen itself (1<<40) is too large to allocate in a unit test;
	// this exercises a multi-megabyte block as a stand-in for that boundary.
	payload := bytes.Repeat([]byte{0xAB}, 4<<20)

	withTimeout(t, 5*time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			chA.Send(payload)
		}()
		got := chB.BlockingReceive()
		if !bytes.Equal(got, payload) {
			t.Fatal("large block did not round-trip byte for byte")
		}
		wg.Wait()
	})
}

func TestSignalEndObservedAsFinByPeer(t *testing.T) {
	a, b := newSessionPair(t)
	chA, _ := a.Open(40)
	chB, _ := b.Open(40)

	withTimeout(t, time.Second, func() {
		chA.SignalEnd()
		chB.WaitForFin()
		if chB.IsAlive() {
			t.Fatal("channel should not be alive once fin observed and queue drained")
		}
	})
}
