package limits

import (
	"sync"
	"testing"
)

func TestConnectionLimiter(t *testing.T) {
	cl := NewConnectionLimiter(2)

	if !cl.Acquire("10.0.0.1") || !cl.Acquire("10.0.0.1") {
		t.Fatal("first two connections refused")
	}
	if cl.Acquire("10.0.0.1") {
		t.Error("third connection from the same address allowed")
	}
	if !cl.Acquire("10.0.0.2") {
		t.Error("other address refused")
	}

	cl.Release("10.0.0.1")
	if got := cl.Count("10.0.0.1"); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if !cl.Acquire("10.0.0.1") {
		t.Error("released slot not reusable")
	}

	if cl.TotalAllowed() != 4 || cl.TotalBlocked() != 1 {
		t.Errorf("allowed=%d blocked=%d", cl.TotalAllowed(), cl.TotalBlocked())
	}
}

func TestConnectionLimiter_ReleaseForgetsAddress(t *testing.T) {
	cl := NewConnectionLimiter(1)
	cl.Acquire("10.0.0.1")
	cl.Release("10.0.0.1")
	cl.Release("10.0.0.1")

	if cl.Addresses() != 0 {
		t.Errorf("addresses = %d, want 0", cl.Addresses())
	}
	if cl.Count("10.0.0.1") != 0 {
		t.Error("extra release went negative")
	}
}

func TestConnectionLimiter_Unlimited(t *testing.T) {
	cl := NewConnectionLimiter(0)
	for i := 0; i < 100; i++ {
		if !cl.Acquire("10.0.0.1") {
			t.Fatalf("refused connection %d", i)
		}
	}
}

func TestConnectionLimiter_Concurrent(t *testing.T) {
	cl := NewConnectionLimiter(5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cl.Acquire("10.0.0.1") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Errorf("granted = %d, want 5", granted)
	}
}
