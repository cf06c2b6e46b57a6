package dialer

import (
	"net"
	"testing"
)

func TestSocketTablePutGetRemove(t *testing.T) {
	table := NewSocketTable()
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	table.Put(1, 0, connA)
	table.Put(1, 1, connB)

	if got, ok := table.Get(1, 0); !ok || got != connA {
		t.Fatalf("Get(1,0) = %v, %v", got, ok)
	}
	if table.Len(1) != 2 {
		t.Fatalf("Len(1) = %d, want 2", table.Len(1))
	}

	table.Remove(1, 0)
	if _, ok := table.Get(1, 0); ok {
		t.Fatal("expected slot to be gone after Remove")
	}
	if table.Len(1) != 1 {
		t.Fatalf("Len(1) = %d, want 1", table.Len(1))
	}
}

func TestListenRangeExpandsPorts(t *testing.T) {
	addrs, err := ListenRange("127.0.0.1:9000-9002")
	if err != nil {
		t.Fatalf("ListenRange: %v", err)
	}
	want := []string{"127.0.0.1:9000", "127.0.0.1:9001", "127.0.0.1:9002"}
	if len(addrs) != len(want) {
		t.Fatalf("got %v, want %v", addrs, want)
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Fatalf("addrs[%d] = %q, want %q", i, addrs[i], want[i])
		}
	}
}

func TestListenRangeRejectsMalformed(t *testing.T) {
	if _, err := ListenRange("not-an-address"); err == nil {
		t.Fatal("expected an error for a malformed range")
	}
}
