package providers

import (
	"context"
	"testing"
	"time"

	"github.com/deadlymenace/x-personal/internal/ratelimit"
)

func TestXAPIPacing_EveryPageFetchIsSpaced(t *testing.T) {
	rl := ratelimit.New(xAPIRequestsPerSecond, xAPIBurst)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// First fetch passes immediately.
	start := time.Now()
	if err := rl.Wait(ctx, "bookmarks"); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait() should be immediate")
	}

	// With no burst headroom the second fetch already observes the
	// inter-page spacing, ~333ms at 3 rps.
	start = time.Now()
	if err := rl.Wait(ctx, "bookmarks"); err != nil {
		t.Fatalf("second Wait() failed: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 250*time.Millisecond || elapsed > 600*time.Millisecond {
		t.Errorf("second Wait() took %v, want ~333ms", elapsed)
	}
}
