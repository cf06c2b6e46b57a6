package chanmux

import (
	"testing"
	"time"
)

func TestEventManualResetStaysSet(t *testing.T) {
	e := NewEvent(false)
	e.Set()
	e.Set() // idempotent while already set

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manual-reset Wait blocked despite Set")
	}

	if !e.IsSet() {
		t.Fatal("manual-reset event cleared itself")
	}

	e.Reset()
	if e.IsSet() {
		t.Fatal("Reset did not clear the event")
	}
}

func TestEventAutoResetWakesOneWaiter(t *testing.T) {
	e := NewEvent(true)
	woke := make(chan int, 2)

	for i := 0; i < 2; i++ {
		i := i
		go func() {
			e.Wait()
			woke <- i
		}()
	}

	time.Sleep(20 * time.Millisecond)
	e.Set()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("no waiter woke after Set")
	}

	select {
	case <-woke:
		t.Fatal("a second waiter woke from one auto-reset Set")
	case <-time.After(50 * time.Millisecond):
	}

	if e.IsSet() {
		t.Fatal("auto-reset event should have been consumed")
	}
}

func TestEventWaitBlocksUntilSet(t *testing.T) {
	e := NewEvent(false)
	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set")
	case <-time.After(30 * time.Millisecond):
	}

	e.Set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Set")
	}
}
