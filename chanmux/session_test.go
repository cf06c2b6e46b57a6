package chanmux

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

func newSessionPair(t *testing.T) (a, b *Session) {
	t.Helper()
	connA, connB := net.Pipe()
	a = NewSession(NewCountingSocket(connA))
	b = NewSession(NewCountingSocket(connB))
	t.Cleanup(func() {
		// Close() on one side only unblocks the other side's receiver
		// pump once ITS OWN kill frame has been written and read: each
		// receiver exits on the peer's admin frame (or socket EOF),
		// never on its own session's Close call. Both sides must
		// therefore shut down concurrently.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); a.Close() }()
		go func() { defer wg.Done(); b.Close() }()
		wg.Wait()
	})
	return a, b
}

func withTimeout(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out")
	}
}

// Scenario 1: echo.
func TestEchoScenario(t *testing.T) {
	a, b := newSessionPair(t)

	chA, err := a.Open(3)
	if err != nil {
		t.Fatal(err)
	}
	chB, err := b.Open(3)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	withTimeout(t, time.Second, func() {
		chA.Send(payload)
		got := chB.BlockingReceive()
		if !bytes.Equal(got, payload) {
			t.Fatalf("B got %x, want %x", got, payload)
		}
		chB.Send(got)
		back := chA.BlockingReceive()
		if !bytes.Equal(back, payload) {
			t.Fatalf("A got %x, want %x", back, payload)
		}
	})
}

// Scenario 2: splice.
func TestSpliceScenario(t *testing.T) {
	a, b := newSessionPair(t)

	chA, _ := a.Open(5)
	chB, _ := b.Open(5)

	withTimeout(t, time.Second, func() {
		chA.Send([]byte{0x01, 0x02})
		chA.Send([]byte{0x03})
		chA.Send([]byte{0x04, 0x05, 0x06, 0x07})

		buf := make([]byte, 5)
		chB.BlockingReceiveInto(buf)
		want := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
		if !bytes.Equal(buf, want) {
			t.Fatalf("first splice got %x, want %x", buf, want)
		}

		buf2 := make([]byte, 2)
		chB.BlockingReceiveInto(buf2)
		want2 := []byte{0x06, 0x07}
		if !bytes.Equal(buf2, want2) {
			t.Fatalf("second splice got %x, want %x", buf2, want2)
		}
	})
}

// Scenario 3: multiplex.
func TestMultiplexScenario(t *testing.T) {
	a, b := newSessionPair(t)

	chA1, _ := a.Open(1)
	chA2, _ := a.Open(2)
	chB1, _ := b.Open(1)
	chB2, _ := b.Open(2)

	withTimeout(t, time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			chA1.Send([]byte{0xAA})
		}()
		go func() {
			defer wg.Done()
			chA2.Send([]byte{0xBB})
		}()
		wg.Wait()

		got1 := chB1.BlockingReceive()
		got2 := chB2.BlockingReceive()
		if !bytes.Equal(got1, []byte{0xAA}) {
			t.Fatalf("channel 1 got %x, want AA", got1)
		}
		if !bytes.Equal(got2, []byte{0xBB}) {
			t.Fatalf("channel 2 got %x, want BB", got2)
		}
	})
}

// Scenario 4: id/len round trip.
func TestIDLenRoundTripScenario(t *testing.T) {
	a, b := newSessionPair(t)

	chA, _ := a.Open(9)
	chB, _ := b.Open(9)

	withTimeout(t, time.Second, func() {
		chA.SendIDLen([]byte{0x42}, 7, 99)
		id, length, data := chB.BlockingReceiveIDLen()
		if id != 7 || length != 99 || !bytes.Equal(data, []byte{0x42}) {
			t.Fatalf("got id=%d len=%d data=%x, want id=7 len=99 data=42", id, length, data)
		}
	})
}

// Scenario 5: graceful close.
func TestGracefulCloseScenario(t *testing.T) {
	a, b := newSessionPair(t)

	chA, _ := a.Open(4)
	chB, _ := b.Open(4)

	withTimeout(t, time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			chA.SynchronizeEnd()
		}()
		go func() {
			defer wg.Done()
			chB.SynchronizeEnd()
		}()
		wg.Wait()
	})

	if chA.IsAlive() {
		t.Fatal("A's channel should not be alive after graceful close")
	}
	if chB.IsAlive() {
		t.Fatal("B's channel should not be alive after graceful close")
	}
	if !chA.finEvent.IsSet() || !chB.finEvent.IsSet() {
		t.Fatal("both fin events should be set")
	}
}

// Scenario 6: deferred fin.
func TestDeferredFinScenario(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	// Drain whatever the sender pump writes so its writes never block; this
	// test only exercises the listener table, not the wire.
	go io.Copy(io.Discard, connB)

	lock := NewLock()
	recv := NewReceiverPump(NewCountingSocket(connA), lock)
	send := NewSenderPump(NewCountingSocket(connA), lock)
	recv.Start()
	send.Start()
	defer func() {
		send.KillTask()
		send.Wait()
	}()

	recv.RemoveListener(6)

	data := NewEvent(true)
	fin := NewEvent(false)
	recv.AddListener(6, data, fin)

	withTimeout(t, time.Second, func() {
		fin.Wait()
	})
}

// Universal invariant: FIFO order preserved per channel.
func TestFIFOOrderPreserved(t *testing.T) {
	a, b := newSessionPair(t)

	chA, _ := a.Open(10)
	chB, _ := b.Open(10)

	const n = 50
	withTimeout(t, 2*time.Second, func() {
		go func() {
			for i := 0; i < n; i++ {
				chA.Send([]byte{byte(i)})
			}
		}()
		for i := 0; i < n; i++ {
			got := chB.BlockingReceive()
			if len(got) != 1 || got[0] != byte(i) {
				t.Fatalf("out of order at %d: got %x", i, got)
			}
		}
	})
}

// Boundary: blocking_receive(buf, 0) returns immediately without touching
// the queue.
func TestBlockingReceiveIntoZeroIsNoop(t *testing.T) {
	a, b := newSessionPair(t)
	chA, _ := a.Open(11)
	chB, _ := b.Open(11)

	withTimeout(t, time.Second, func() {
		chA.Send([]byte{0x01})
		var empty []byte
		chB.BlockingReceiveInto(empty)
		if !chB.DataAvailable() {
			// the one byte we sent should still be sitting there untouched
		}
		got := chB.BlockingReceive()
		if !bytes.Equal(got, []byte{0x01}) {
			t.Fatalf("queue was disturbed by zero-size receive: got %x", got)
		}
	})
}

// Boundary: zero-byte Send is not meaningful data; it must reach the peer
// via SignalEnd only, not as an observable empty block.
func TestSignalEndNotObservedAsBlock(t *testing.T) {
	a, b := newSessionPair(t)
	chA, _ := a.Open(12)
	chB, _ := b.Open(12)

	withTimeout(t, time.Second, func() {
		chA.Send([]byte{0x01})
		chA.SignalEnd()

		got := chB.BlockingReceive()
		if !bytes.Equal(got, []byte{0x01}) {
			t.Fatalf("got %x, want 01", got)
		}
		chB.WaitForFin()
		if chB.DataAvailable() {
			t.Fatal("fin must not enqueue a visible block")
		}
	})
}
