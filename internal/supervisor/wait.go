package supervisor

import (
	"context"
	"time"
)

// waitFor polls cond every interval until it returns true or timeout
// elapses, reporting whether cond became true. A cancelled context ends the
// poll early with a false result. This is the single wait primitive behind
// the post-launch check, the graceful stop bound, and the kill bound.
func waitFor(ctx context.Context, timeout, interval time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
		d := interval
		if remain := time.Until(deadline); remain < d {
			d = remain
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

// pause sleeps for d unless the context ends first.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
